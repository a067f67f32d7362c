// sctri runs the clustering-consensus pipeline: per-annotation stability
// metrics, the per-cell Shapley election and the pruning passes, driven by
// a YAML config file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sctriangulate/sctri/config"
	"github.com/sctriangulate/sctri/expr"
	"github.com/sctriangulate/sctri/triangulate"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath string
	verbose    bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "sctri",
	Short: "sctri - clustering-consensus pipeline for single-cell annotations",
	Long: `sctri reconciles competing cluster annotations of one single-cell
expression matrix. Each annotation is scored with per-cluster stability
metrics, every cell elects its winning annotation by Shapley value, and
pruning passes clean the consensus labeling.

Inputs and tuning come from a YAML config (see 'sctri init').`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// runCmd runs the whole pipeline from scratch.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: metrics, election, pruning",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		tri, err := buildPipeline(cfg)
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		return tri.LazyRun(ctx)
	},
}

// salvageCmd resumes a crashed run from a checkpoint.
var salvageCmd = &cobra.Command{
	Use:   "salvage <snapshot> <stage>",
	Short: "Resume a crashed run from a checkpoint file",
	Long: `Resume a run from one of the checkpoints LazyRun leaves behind:
after_metrics, after_shapley or after_rank_pruning. The stage names the
checkpoint that was completed, not the next stage to run.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		opts := append(cfg.PipelineOptions(), triangulate.WithLogger(logger))
		_, err = triangulate.SalvageRun(ctx, args[0], args[1], opts...)

		return err
	},
}

var (
	pruneRemove1   bool
	pruneAbsThresh int
	pruneDiscard   []string
	pruneSave      string
)

// pruneCmd reruns one pruning strategy on a checkpointed run.
var pruneCmd = &cobra.Command{
	Use:   "prune <snapshot> <method>",
	Short: "Rerun a pruning strategy (rank, reassign, reference) on a checkpoint",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		tri, err := triangulate.Restore(args[0],
			triangulate.WithLogger(logger),
			triangulate.WithAbsThreshold(pruneAbsThresh))
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()
		err = tri.Pruning(ctx, triangulate.Method(args[1]), triangulate.PruneOptions{
			Discard: pruneDiscard,
			Remove1: pruneRemove1,
		})
		if err != nil {
			return err
		}

		stats, err := tri.PruneStatistics()
		if err != nil {
			return err
		}
		if err := stats.WriteTSV(os.Stdout); err != nil {
			return err
		}
		if pruneSave != "" {
			return tri.Snapshot(pruneSave)
		}

		return nil
	},
}

// statsCmd prints the raw-versus-pruned occupancy table of a finished run.
var statsCmd = &cobra.Command{
	Use:   "stats <snapshot>",
	Short: "Print prune statistics from a checkpoint file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tri, err := triangulate.Restore(args[0])
		if err != nil {
			return err
		}
		stats, err := tri.PruneStatistics()
		if err != nil {
			return err
		}

		return stats.WriteTSV(os.Stdout)
	},
}

// initCmd writes a starter config.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file to the --config path",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("refusing to overwrite %s", configPath)
		}
		logger.Info("writing default config", zap.String("path", configPath))

		return config.DefaultConfig().Save(configPath)
	},
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// buildPipeline loads the matrix and annotations and wires the run.
func buildPipeline(cfg *config.Config) (*triangulate.Triangulate, error) {
	logger.Info("loading matrix",
		zap.String("matrix", cfg.Input.MatrixPath),
		zap.String("obs", cfg.Input.ObsPath))
	m, err := expr.LoadMatrix(cfg.Input.MatrixPath, cfg.Input.ObsPath)
	if err != nil {
		return nil, err
	}
	if cfg.Input.Log1p {
		if m.X, err = expr.Log1p(m.X); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(cfg.Run.OutDir, 0o755); err != nil {
		return nil, err
	}

	opts := append(cfg.PipelineOptions(), triangulate.WithLogger(logger))

	return triangulate.New(m, cfg.Run.Query, cfg.Run.Reference, cfg.Run.OutDir, opts...)
}

// signalContext cancels on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "sctri.yaml", "Config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	pruneCmd.Flags().BoolVar(&pruneRemove1, "remove1", true, "Fold pruned singletons per reference cluster")
	pruneCmd.Flags().IntVar(&pruneAbsThresh, "abs-thresh", 0, "Minimum viable cluster size (0 derives from cell count)")
	pruneCmd.Flags().StringSliceVar(&pruneDiscard, "discard", nil, "Metrics excluded from rank pruning")
	pruneCmd.Flags().StringVar(&pruneSave, "save", "", "Write the pruned state to this snapshot path")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(salvageCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(initCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
