package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewGenerateCmd creates the generate command
func NewGenerateCmd() *cobra.Command {
	var arches []string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Regenerate repository index files",
		Long: `Rebuilds the Packages and Release files from the catalog. Every
architecture known to the catalog is regenerated; --arch adds
architectures the catalog has not recorded yet.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.generator.GenerateArchitectures(cmd.Context(), arches); err != nil {
				return err
			}

			logrus.Info("regeneration complete")
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&arches, "arch", nil, "Extra architectures to publish beyond those in the catalog")

	return cmd
}
