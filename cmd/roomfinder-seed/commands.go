package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/roomfinder/internal/app"
	"github.com/kailas-cloud/roomfinder/internal/config"
	"github.com/kailas-cloud/roomfinder/internal/domain"
	dombatch "github.com/kailas-cloud/roomfinder/internal/domain/batch"
	logpkg "github.com/kailas-cloud/roomfinder/internal/logger"
	"github.com/kailas-cloud/roomfinder/internal/metrics"
	"github.com/kailas-cloud/roomfinder/internal/usecase/ingest"
)

// indexRepo is what the seed commands need from the image repository.
type indexRepo interface {
	ingest.Upserter
	ingest.IndexEnsurer
}

// deps are the collaborators of a seed run.
type deps struct {
	repo   indexRepo
	embed  domain.Embedder
	logger *zap.Logger
	close  func()
}

// connector builds deps for the named environment.
type connector func(ctx context.Context, env string) (*deps, error)

// connect wires the real store and embedding chain.
func connect(ctx context.Context, env string) (*deps, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	store, err := app.OpenStore(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	metrics.RegisterEmbeddingMetrics()
	embedders := app.BuildEmbedders(&cfg, store, logger)

	return &deps{
		repo:   app.ImageRepo(store, &cfg),
		embed:  embedders.Chain,
		logger: logger,
		close: func() {
			store.Close()
			_ = logger.Sync()
		},
	}, nil
}

func newRootCmd(connect connector) *cobra.Command {
	var env string

	root := &cobra.Command{
		Use:           "roomfinder-seed",
		Short:         "Load annotated interior images into the search index",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&env, "env", config.GetEnv(), "config environment (local, dev, prod)")

	root.AddCommand(newLoadCmd(connect, &env), newEnsureIndexCmd(connect, &env))
	return root
}

func newLoadCmd(connect connector, env *string) *cobra.Command {
	var (
		opts        ingest.Options
		ensureIndex bool
	)

	cmd := &cobra.Command{
		Use:   "load <file.jsonl>",
		Short: "Embed and upsert annotation records",
		Long: `Reads one annotation object per line, skips template responses,
embeds the three search texts of every image and upserts the records.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(filepath.Clean(args[0]))
			if err != nil {
				return fmt.Errorf("open annotations: %w", err)
			}
			defer func() { _ = f.Close() }()

			items, err := ingest.ReadJSONL(f)
			if err != nil {
				return fmt.Errorf("read annotations: %w", err)
			}

			ctx := cmd.Context()
			d, err := connect(ctx, *env)
			if err != nil {
				return err
			}
			defer d.close()

			if ensureIndex {
				if err := ingest.EnsureIndex(ctx, d.repo, d.logger); err != nil {
					return err
				}
			}

			results, err := ingest.New(d.repo, d.embed, opts, d.logger).Load(ctx, items)
			if err != nil {
				return fmt.Errorf("load: %w", err)
			}

			sum := dombatch.Summarize(results)
			cmd.Printf("Loaded %d of %d annotations (%d skipped, %d failed)\n",
				sum.OK, len(results), sum.Skipped, sum.Failed)
			if sum.Failed > 0 {
				return fmt.Errorf("%d annotations failed: %w", sum.Failed, ingest.JoinErrors(results))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.Workers, "workers", ingest.DefaultWorkers, "concurrent embedding workers")
	cmd.Flags().IntVar(&opts.ChunkSize, "chunk-size", ingest.DefaultChunkSize, "records per store write")
	cmd.Flags().BoolVar(&ensureIndex, "ensure-index", true, "create the search index before loading")
	return cmd
}

func newEnsureIndexCmd(connect connector, env *string) *cobra.Command {
	return &cobra.Command{
		Use:   "ensure-index",
		Short: "Create the search index if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			d, err := connect(ctx, *env)
			if err != nil {
				return err
			}
			defer d.close()

			if err := ingest.EnsureIndex(ctx, d.repo, d.logger); err != nil {
				return err
			}
			cmd.Println("Search index ready.")
			return nil
		},
	}
}

// exitCode maps a command error to the process status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return 130
	default:
		return 1
	}
}
