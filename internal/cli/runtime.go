package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/godsvagn/godsvagn/internal/catalog"
	"github.com/godsvagn/godsvagn/internal/config"
	"github.com/godsvagn/godsvagn/internal/generator"
	"github.com/godsvagn/godsvagn/internal/ingest"
	"github.com/godsvagn/godsvagn/internal/signer"
	"github.com/godsvagn/godsvagn/internal/storage"
	"github.com/godsvagn/godsvagn/internal/utils"
)

// runtime bundles the wired components every command needs
type runtime struct {
	cfg       *config.Config
	catalog   *catalog.Catalog
	store     *storage.Store
	ingester  *ingest.Service
	generator *generator.Generator
}

// setup loads configuration and wires catalog, storage, signer,
// ingestion and generation. The caller must Close the runtime.
func setup(ctx context.Context, cmd *cobra.Command) (*runtime, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if err := utils.EnsureDir(cfg.Storage.Root); err != nil {
		return nil, fmt.Errorf("creating repository root: %w", err)
	}

	cat, err := catalog.New(ctx, cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	if err := cat.Migrate(ctx); err != nil {
		cat.Close()
		return nil, err
	}

	var s signer.Signer
	if cfg.Signing.KeyPath != "" {
		gpg, err := signer.NewGPGSigner(cfg.Signing.KeyPath, cfg.Signing.Passphrase)
		if err != nil {
			cat.Close()
			return nil, fmt.Errorf("initializing signer: %w", err)
		}
		s = gpg
	}

	store := storage.NewStore(cfg.Storage.Root)

	return &runtime{
		cfg:       cfg,
		catalog:   cat,
		store:     store,
		ingester:  ingest.NewService(cat, store),
		generator: generator.NewGenerator(cat, s, cfg.Release, cfg.Storage.Root),
	}, nil
}

// Close releases the runtime's resources
func (r *runtime) Close() {
	r.catalog.Close()
}
