package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hupe1980/cellknn"
	"github.com/hupe1980/cellknn/blobstore"
	"github.com/hupe1980/cellknn/index"
	"github.com/hupe1980/cellknn/index/annoy"
	"github.com/hupe1980/cellknn/index/hnsw"
	"github.com/hupe1980/cellknn/metadata"
	"github.com/hupe1980/cellknn/source"
)

func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "cellknn",
		Short:         "Nearest-neighbor search and label transfer over embeddings",
		Long:          `Build a nearest-neighbor index over an embedding matrix and query it for raw neighbors, per-query attribute counts or majority-vote labels.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path of the YAML job config")
	rootCmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(
		NewInfoCmd(),
		NewQueryCmd(),
	)

	return rootCmd
}

// buildKNN loads the job config behind cmd's --config flag, fetches the
// metadata table and constructs a fully built KNN.
func buildKNN(cmd *cobra.Command) (*cellknn.KNN, *Config, error) {
	ctx := cmd.Context()

	configPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}

	store, err := newBlobStore(ctx, cfg.Data)
	if err != nil {
		return nil, nil, err
	}

	obs, err := loadObs(ctx, store, cfg.Data.Obs)
	if err != nil {
		return nil, nil, err
	}

	logger := cellknn.NoopLogger()
	if verbose {
		logger = cellknn.NewTextLogger(slog.LevelDebug)
	}

	opts, err := indexOptions(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	knn, err := cellknn.New(ctx, source.NewBlob(store), obs, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("build index: %w", err)
	}

	return knn, cfg, nil
}

func loadObs(ctx context.Context, store blobstore.Store, path string) (*metadata.Table, error) {
	if path == "" {
		return metadata.NewTable(0), nil
	}

	rc, err := store.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open metadata %q: %w", path, err)
	}
	defer rc.Close()

	table, err := metadata.ReadCSV(rc)
	if err != nil {
		return nil, fmt.Errorf("load metadata %q: %w", path, err)
	}

	return table, nil
}

func indexOptions(cfg *Config, logger *cellknn.Logger) ([]cellknn.Option, error) {
	opts := []cellknn.Option{
		cellknn.WithUseKey(cfg.Data.UseKey),
		cellknn.WithLogger(logger),
	}

	if cfg.Index.Space != "" {
		space, err := index.ParseSpace(cfg.Index.Space)
		if err != nil {
			return nil, err
		}
		opts = append(opts, cellknn.WithSpace(space))
	}

	if cfg.Index.K > 0 {
		opts = append(opts, cellknn.WithK(cfg.Index.K))
	}

	if cfg.Index.Parallelism > 0 {
		opts = append(opts, cellknn.WithParallelism(cfg.Index.Parallelism))
	}

	switch cfg.Index.Backend {
	case "", "hnsw":
		hc := cfg.Index.HNSW
		opts = append(opts, cellknn.WithHNSW(func(o *hnsw.Options) {
			if hc.M > 0 {
				o.M = hc.M
			}
			if hc.EF > 0 {
				o.EF = hc.EF
			}
			if hc.EFSearch > 0 {
				o.EFSearch = hc.EFSearch
			}
		}))
	case "forest":
		fc := cfg.Index.Forest
		opts = append(opts, cellknn.WithForest(func(o *annoy.Options) {
			if fc.NumTrees > 0 {
				o.NumTrees = fc.NumTrees
			}
			if fc.SearchK > 0 {
				o.SearchK = fc.SearchK
			}
		}))
	default:
		return nil, fmt.Errorf("unknown index backend %q", cfg.Index.Backend)
	}

	return opts, nil
}
