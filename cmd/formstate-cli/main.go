package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/goliatone/go-formstate/pkg/renderers/tui"
)

func main() {
	cmd := newRootCmd(&app{})
	if err := cmd.Execute(); err != nil {
		if errors.Is(err, tui.ErrAborted) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
