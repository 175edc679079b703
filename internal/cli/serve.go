package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/godsvagn/godsvagn/internal/server"
)

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the repository HTTP service",
		Long: `Runs the upload and regeneration endpoints and serves the published
repository tree. Authentication and TLS belong to a fronting proxy.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			logrus.Infof("repository root: %s", rt.cfg.Storage.Root)
			srv := server.New(rt.cfg.Server.Bind, rt.ingester, rt.generator, rt.cfg.Storage.Root)
			return srv.Start()
		},
	}
}
