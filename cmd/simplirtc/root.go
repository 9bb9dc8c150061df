package main

import (
	"context"
	"time"

	"simplirtc/native/internal/api"
	"simplirtc/native/internal/config"
	"simplirtc/native/internal/credential"
	"simplirtc/native/internal/logging"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries the viper instance shared by the command tree.
type app struct {
	v *viper.Viper
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:           "simplirtc",
		Short:         "A CLI application for getting SimpliSafe WebRTC streams.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(a.v.GetBool(config.KeyVerbose))
		},
	}

	flags := root.PersistentFlags()
	flags.String("token", "", "token file")
	flags.BoolP("verbose", "v", false, "verbose output")
	flags.Duration("timeout", 30*time.Second, "timeout for each external call")
	_ = a.v.BindPFlag(config.KeyToken, flags.Lookup("token"))
	_ = a.v.BindPFlag(config.KeyVerbose, flags.Lookup("verbose"))
	_ = a.v.BindPFlag(config.KeyTimeout, flags.Lookup("timeout"))

	root.AddCommand(
		a.authenticateCmd(),
		a.camerasCmd(),
		a.streamCmd(),
		a.serveCmd(),
	)
	return root
}

// openSession loads the stored refresh token and establishes an API session
// that writes rotated tokens back to the same file.
func (a *app) openSession(ctx context.Context) (*config.Config, *api.Session, error) {
	cfg, err := config.Load(a.v)
	if err != nil {
		return nil, nil, err
	}

	session, err := api.Open(ctx, cfg.API(), credential.NewStore(cfg.TokenPath))
	if err != nil {
		return nil, nil, err
	}
	return cfg, session, nil
}
