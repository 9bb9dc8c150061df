package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"simplirtc/native/internal/domain"

	"github.com/spf13/cobra"
)

func (a *app) camerasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cameras",
		Short: "List devices.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, session, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}

			return listCameras(cmd.Context(), session, cmd.OutOrStdout())
		},
	}
}

// listCameras writes the account's cameras to w as indented JSON.
func listCameras(ctx context.Context, lister domain.SystemLister, w io.Writer) error {
	systems, err := lister.Systems(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(cameraListing(systems))
}

// cameraListing keys each system by "address (id)" with its cameras as
// "name (id)".
func cameraListing(systems []domain.System) map[string][]string {
	listing := make(map[string][]string, len(systems))
	for _, system := range systems {
		cameras := make([]string, 0, len(system.Cameras))
		for _, camera := range system.Cameras {
			cameras = append(cameras, fmt.Sprintf("%s (%s)", camera.Name, camera.ID))
		}
		listing[fmt.Sprintf("%s (%s)", system.Address, system.ID)] = cameras
	}
	return listing
}
