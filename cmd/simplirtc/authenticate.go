package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"simplirtc/native/internal/auth"
	"simplirtc/native/internal/config"
	"simplirtc/native/internal/credential"

	"github.com/spf13/cobra"
)

func (a *app) authenticateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "authenticate",
		Short: "Authenticate and save a refresh token.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.v)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			flow := auth.NewFlow(cfg.Auth())
			authURL, err := flow.Begin()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Please visit %s to authenticate.\n", authURL)
			fmt.Fprint(out, "Enter the code: ")

			code, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && !(errors.Is(err, io.EOF) && code != "") {
				return fmt.Errorf("read code: %w", err)
			}

			token, err := flow.Exchange(cmd.Context(), code)
			if err != nil {
				return err
			}
			if err := credential.NewStore(cfg.TokenPath).Save(token); err != nil {
				return err
			}

			fmt.Fprintln(out, "You are now ready to use the SimpliSafe API!")
			return nil
		},
	}
}
