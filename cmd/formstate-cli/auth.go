package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formstate"
	"github.com/goliatone/go-formstate/pkg/authapi"
	"github.com/goliatone/go-formstate/pkg/formdef"
)

func newLoginCmd(a *app) *cobra.Command {
	var tokenFile string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if tokenFile == "" {
				tokenFile = a.cfg.TokenFile
			}
			def, err := a.definition(formstate.LoginFormID)
			if err != nil {
				return err
			}
			client, err := a.client()
			if err != nil {
				return err
			}
			runner, err := a.runner(cmd)
			if err != nil {
				return err
			}

			var signedIn authapi.SigninResponse
			onToken := func(resp authapi.SigninResponse) error {
				signedIn = resp
				return writeToken(tokenFile, resp.AccessToken)
			}
			ctrl, _, err := def.Build(authapi.SigninAction(client, onToken), formdef.WithLogger(a.logger))
			if err != nil {
				return err
			}
			if _, err := runner.RunForm(cmd.Context(), def, ctrl); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Signed in as %s\n", displayName(signedIn.Name, ctrl.Values().String("email")))
			if tokenFile != "" {
				fmt.Fprintf(out, "Access token written to %s\n", tokenFile)
			} else {
				fmt.Fprintln(out, signedIn.AccessToken)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&tokenFile, "token-file", "", "write the access token to this file (mode 0600)")
	return cmd
}

func newSignupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "signup",
		Short: "Create an account with the three-step signup wizard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			def, err := a.definition(formstate.SignupFormID)
			if err != nil {
				return err
			}
			client, err := a.client()
			if err != nil {
				return err
			}
			runner, err := a.runner(cmd)
			if err != nil {
				return err
			}

			var created authapi.User
			onUser := func(user authapi.User) error {
				created = user
				return nil
			}
			_, wiz, err := def.Build(authapi.SignupAction(client, onUser), formdef.WithLogger(a.logger))
			if err != nil {
				return err
			}
			if wiz == nil {
				return fmt.Errorf("definition %q declares no steps", def.ID)
			}
			if _, err := runner.RunWizard(cmd.Context(), def, wiz); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account created for %s. You can now log in.\n",
				displayName(created.Email, wiz.Controller().Values().String("email")))
			return nil
		},
	}
}

func newMeCmd(a *app) *cobra.Command {
	var token, tokenFile string
	cmd := &cobra.Command{
		Use:   "me",
		Short: "Show the account that owns an access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if tokenFile == "" {
				tokenFile = a.cfg.TokenFile
			}
			if token == "" && tokenFile != "" {
				data, err := os.ReadFile(tokenFile)
				if err != nil {
					return fmt.Errorf("read token file: %w", err)
				}
				token = strings.TrimSpace(string(data))
			}
			client, err := a.client()
			if err != nil {
				return err
			}
			user, err := client.MyInfo(cmd.Context(), token)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\n", user.Name, user.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "access token")
	cmd.Flags().StringVar(&tokenFile, "token-file", "", "read the access token from this file")
	return cmd
}

func writeToken(path, token string) error {
	if path == "" {
		return nil
	}
	if err := os.WriteFile(path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

func displayName(preferred, fallback string) string {
	if strings.TrimSpace(preferred) != "" {
		return preferred
	}
	return fallback
}
