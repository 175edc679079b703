package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/godsvagn/godsvagn/internal/models"
)

// NewIngestCmd creates the one-shot ingest command used by external
// automation: it catalogs the named artifacts and regenerates the
// repository layout.
func NewIngestCmd() *cobra.Command {
	var ignoreExists bool

	cmd := &cobra.Command{
		Use:   "ingest <file.deb> [file.deb...]",
		Short: "Ingest artifacts and regenerate the repository",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx := cmd.Context()
			touched := make(map[string]bool)
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("reading %s: %w", path, err)
				}

				pkg, err := rt.ingester.Ingest(ctx, data)
				if err != nil {
					if models.IsDuplicate(err) && ignoreExists {
						logrus.Infof("%s already cataloged, skipping", path)
						continue
					}
					return fmt.Errorf("ingesting %s: %w", path, err)
				}
				touched[pkg.Architecture] = true
			}

			if len(touched) == 0 {
				logrus.Info("nothing new ingested")
				return nil
			}

			arches := make([]string, 0, len(touched))
			for arch := range touched {
				arches = append(arches, arch)
			}
			sort.Strings(arches)
			return rt.generator.GenerateArchitectures(ctx, arches)
		},
	}

	cmd.Flags().BoolVar(&ignoreExists, "ignore-exists", false, "Treat already-cataloged artifacts as success")

	return cmd
}
