package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formstate/internal/config"
	"github.com/goliatone/go-formstate/internal/logging"
	"github.com/goliatone/go-formstate/pkg/authapi"
	"github.com/goliatone/go-formstate/pkg/formdef"
	"github.com/goliatone/go-formstate/pkg/renderers/tui"
)

// app carries resolved settings and collaborators shared by subcommands.
type app struct {
	configPath string
	cfg        config.Config
	logger     *slog.Logger

	// driver replaces the interactive prompt driver in tests.
	driver tui.PromptDriver
}

var flagNames = map[string]string{
	"base_url":    "base-url",
	"log_level":   "log-level",
	"definitions": "definitions",
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "formstate",
		Short:         "Sign in and sign up against the auth backend from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default ~/.config/formstate/config.yaml)")
	flags.String("base-url", authapi.DefaultBaseURL, "auth backend base URL")
	flags.String("log-level", "warn", "log level: debug, info, warn, error")
	flags.String("definitions", "", "directory of form definitions (default: bundled)")

	root.AddCommand(
		newLoginCmd(a),
		newSignupCmd(a),
		newMeCmd(a),
		newValidateCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, used, err := config.Load(a.configPath, cmd.Flags(), flagNames)
	if err != nil {
		return err
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logging.NewWithWriter(cmd.ErrOrStderr(), level)
	if used != "" {
		a.logger.Debug("config loaded", "path", used)
	}
	return nil
}

func (a *app) catalog() (*formdef.Catalog, error) {
	if a.cfg.Definitions == "" {
		return formdef.Embedded()
	}
	return formdef.LoadFS(os.DirFS(a.cfg.Definitions))
}

func (a *app) definition(id string) (formdef.Definition, error) {
	catalog, err := a.catalog()
	if err != nil {
		return formdef.Definition{}, err
	}
	def, ok := catalog.Get(id)
	if !ok {
		return formdef.Definition{}, fmt.Errorf("no %q form definition found", id)
	}
	return def, nil
}

func (a *app) client() (*authapi.Client, error) {
	return authapi.New(a.cfg.BaseURL, authapi.WithLogger(a.logger))
}

func (a *app) runner(cmd *cobra.Command) (*tui.Runner, error) {
	driver := a.driver
	if driver == nil {
		driver = tui.NewSurveyDriver(cmd.OutOrStdout())
	}
	return tui.New(
		tui.WithPromptDriver(driver),
		tui.WithTheme(tui.Theme{ErrorPrefix: "✗ "}),
		tui.WithLogger(a.logger),
	)
}
