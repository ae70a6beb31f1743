package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formstate/pkg/formdef"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file...]",
		Short: "Check form definitions",
		Long:  "Parses each definition file and checks its schema, steps and refinements. Without arguments the configured definitions are checked.",
		RunE: func(cmd *cobra.Command, args []string) error {
			defs, err := a.definitionsToCheck(args)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			failed := 0
			for _, def := range defs {
				err := def.Check(cmd.Context())
				if err == nil {
					fmt.Fprintf(out, "ok   %s (%s)\n", def.Source, def.ID)
					continue
				}
				failed++
				fmt.Fprintf(out, "FAIL %s (%s)\n", def.Source, def.ID)
				var checkErr *formdef.CheckError
				if errors.As(err, &checkErr) {
					for _, issue := range checkErr.Issues {
						fmt.Fprintf(out, "     %s: %s\n", issue.Path, issue.Message)
					}
				} else {
					fmt.Fprintf(out, "     %v\n", err)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d definitions failed validation", failed, len(defs))
			}
			return nil
		},
	}
}

func (a *app) definitionsToCheck(files []string) ([]formdef.Definition, error) {
	if len(files) == 0 {
		catalog, err := a.catalog()
		if err != nil {
			return nil, err
		}
		defs := make([]formdef.Definition, 0, len(catalog.IDs()))
		for _, id := range catalog.IDs() {
			def, _ := catalog.Get(id)
			defs = append(defs, def)
		}
		return defs, nil
	}

	defs := make([]formdef.Definition, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		def, err := formdef.Parse(data, path)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}
