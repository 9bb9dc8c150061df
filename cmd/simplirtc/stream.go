package main

import (
	"fmt"

	"simplirtc/native/internal/viewer"

	"github.com/spf13/cobra"
)

func (a *app) streamCmd() *cobra.Command {
	var camera, location string

	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Print the go2rtc source URI of a camera.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, session, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}

			uri, err := viewer.New(session, nil).StreamURI(cmd.Context(), location, camera)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), uri)
			return nil
		},
	}

	cmd.Flags().StringVar(&camera, "camera", "", "Camera serial number")
	cmd.Flags().StringVar(&location, "location", "", "Location ID")
	_ = cmd.MarkFlagRequired("camera")
	_ = cmd.MarkFlagRequired("location")
	return cmd
}
