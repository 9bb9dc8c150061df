package main

import (
	"simplirtc/native/internal/config"
	"simplirtc/native/internal/signal"
	"simplirtc/native/internal/viewer"
	"simplirtc/native/internal/whep"

	"github.com/spf13/cobra"
)

func (a *app) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve WHEP signaling for SimpliSafe cameras.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, session, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}

			translator := signal.NewTranslator(signal.NewKinesisSignaler(), signal.NewWebSocketSignaler(), cfg.Timeout)
			server := whep.New(viewer.New(session, translator))
			return server.Run(cmd.Context(), cfg.Listen)
		},
	}

	cmd.Flags().StringP("listen", "l", ":8080", "address to listen on")
	_ = a.v.BindPFlag(config.KeyListen, cmd.Flags().Lookup("listen"))
	return cmd
}
