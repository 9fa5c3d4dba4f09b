package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/digit-ml/digit/internal/checkpoint"
	"github.com/digit-ml/digit/internal/compute"
	"github.com/digit-ml/digit/internal/config"
	"github.com/digit-ml/digit/internal/dataset"
	"github.com/digit-ml/digit/internal/history"
	"github.com/digit-ml/digit/internal/optim"
	"github.com/digit-ml/digit/internal/pipeline"
	"github.com/digit-ml/digit/internal/plot"
	"github.com/digit-ml/digit/internal/trainer"
)

func newTrainCmd() *cobra.Command {
	var (
		configPath string
		overrides  config.Overrides
		synthetic  bool
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the digit classifier on MNIST",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			cfg.ApplyOverrides(overrides)
			// Zero is a legitimate value for these two, so the
			// zero-means-unset override convention doesn't apply:
			// a set flag always wins.
			if cmd.Flags().Changed("seed") {
				cfg.Seed = overrides.Seed
			}
			if cmd.Flags().Changed("patience") {
				cfg.Patience = overrides.Patience
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runTrain(ctx, cfg, synthetic, slog.Default())
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	cmd.Flags().StringVar(&overrides.DataDir, "data-dir", "", "dataset cache directory")
	cmd.Flags().StringVar(&overrides.OutDir, "out-dir", "", "output directory for runs, plots, checkpoints")
	cmd.Flags().Int64Var(&overrides.Seed, "seed", 0, "RNG seed")
	cmd.Flags().IntVar(&overrides.BatchSize, "batch-size", 0, "mini-batch size")
	cmd.Flags().StringVar(&overrides.Optimizer, "optimizer", "", "optimizer (adam or sgd)")
	cmd.Flags().Float32Var(&overrides.LR, "lr", 0, "Adam learning rate")
	cmd.Flags().IntVar(&overrides.Epochs, "epochs", 0, "maximum epochs")
	cmd.Flags().IntVar(&overrides.Patience, "patience", 0, "early-stopping patience (0 disables)")
	cmd.Flags().IntVar(&overrides.MaxTrain, "max-train", 0, "cap the training split (0 = full)")
	cmd.Flags().IntVar(&overrides.MaxTest, "max-test", 0, "cap the test split (0 = full)")
	cmd.Flags().BoolVar(&synthetic, "synthetic", false, "train on a generated dataset instead of MNIST")
	return cmd
}

func runTrain(ctx context.Context, cfg *config.Config, synthetic bool, log *slog.Logger) error {
	cctx := compute.New(cfg.Seed)

	trainSplit, testSplit, err := loadSplits(ctx, cfg, synthetic, log)
	if err != nil {
		return err
	}

	model, err := digitNet(cctx)
	if err != nil {
		return err
	}
	log.Info("model built", "architecture", model.String(), "parameters", model.NumParameters())

	var opt optim.Optimizer
	switch cfg.Optimizer {
	case "sgd":
		opt = optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: cfg.LR, Momentum: cfg.Momentum})
	default:
		opt = optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: cfg.LR})
	}

	trainPipe, err := pipeline.New(cctx, trainSplit, pipeline.Options{
		BatchSize: cfg.BatchSize,
		Shuffle:   true,
		Prefetch:  2,
	})
	if err != nil {
		return err
	}
	testPipe, err := pipeline.New(cctx, testSplit, pipeline.Options{
		BatchSize: cfg.BatchSize,
	})
	if err != nil {
		return err
	}

	store := history.NewStore(filepath.Join(cfg.OutDir, "runs"))
	run := store.NewRun()
	run.Seed = cfg.Seed
	run.BatchSize = cfg.BatchSize
	run.Optimizer = cfg.Optimizer
	run.LR = cfg.LR
	run.Patience = cfg.Patience

	tr, err := trainer.New(trainer.Config{
		Epochs:   cfg.Epochs,
		Patience: cfg.Patience,
		MinDelta: cfg.MinDelta,
	}, log)
	if err != nil {
		return err
	}

	result, err := tr.Fit(ctx, model, opt, trainPipe, testPipe)
	if err != nil {
		return err
	}

	run.Epochs = result.History
	run.BestEpoch = result.BestEpoch
	run.BestValLoss = result.BestValLoss
	run.StopReason = string(result.Reason)
	runPath, err := store.Save(run)
	if err != nil {
		return err
	}
	log.Info("run saved", "path", runPath)

	if len(result.History) > 0 {
		plots, err := plot.SaveCurves(result.History, filepath.Join(cfg.OutDir, "plots"))
		if err != nil {
			return err
		}
		log.Info("curves saved", "paths", plots)
	}

	ckptPath := filepath.Join(cfg.OutDir, "model.ckpt")
	if err := checkpoint.Save(ckptPath, model, opt, result.BestEpoch); err != nil {
		return err
	}
	log.Info("checkpoint saved", "path", ckptPath)
	return nil
}

func loadSplits(ctx context.Context, cfg *config.Config, synthetic bool, log *slog.Logger) (*dataset.Split, *dataset.Split, error) {
	if synthetic {
		n := cfg.MaxTrain
		if n == 0 {
			n = 1000
		}
		m := cfg.MaxTest
		if m == 0 {
			m = 200
		}
		log.Info("using synthetic dataset", "train", n, "test", m)
		return dataset.Synthetic(dataset.TrainSplit, n), dataset.Synthetic(dataset.TestSplit, m), nil
	}

	fetcher := &dataset.Fetcher{Dir: cfg.DataDir, Log: log}
	for _, split := range []string{dataset.TrainSplit, dataset.TestSplit} {
		if err := fetcher.Ensure(ctx, split); err != nil {
			return nil, nil, fmt.Errorf("fetch %s split: %w", split, err)
		}
	}

	trainSplit, err := dataset.Load(cfg.DataDir, dataset.TrainSplit, cfg.MaxTrain)
	if err != nil {
		return nil, nil, err
	}
	testSplit, err := dataset.Load(cfg.DataDir, dataset.TestSplit, cfg.MaxTest)
	if err != nil {
		return nil, nil, err
	}
	log.Info("dataset loaded", "train", trainSplit.NumSamples(), "test", testSplit.NumSamples())
	return trainSplit, testSplit, nil
}
