// Package trainer runs the epoch loop: gradient steps over the
// training pipeline, a validation pass after each epoch, and early
// stopping with best-weight rollback.
package trainer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/digit-ml/digit/internal/metrics"
	"github.com/digit-ml/digit/internal/nn"
	"github.com/digit-ml/digit/internal/optim"
	"github.com/digit-ml/digit/internal/pipeline"
)

// StopReason tells why Fit returned.
type StopReason string

const (
	StopEarly     StopReason = "early-stop"
	StopEpochCap  StopReason = "epoch-cap"
	StopCancelled StopReason = "cancelled"
)

// State reports whether a Trainer is mid-run.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRunning:
		return "RUNNING"
	case StateStopped:
		return "STOPPED"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Config bounds a training run.
type Config struct {
	Epochs   int     // hard cap on epochs
	Patience int     // epochs without improvement before stopping; 0 disables
	MinDelta float32 // smallest validation-loss drop that counts as improvement
}

// DefaultConfig matches the standard run: up to 100 epochs, stop after
// 5 stale epochs, improvements under 0.001 don't count.
func DefaultConfig() Config {
	return Config{Epochs: 100, Patience: 5, MinDelta: 0.001}
}

func (c Config) validate() error {
	if c.Epochs < 1 {
		return errors.New("trainer: epochs must be at least 1")
	}
	if c.Patience < 0 {
		return errors.New("trainer: patience must not be negative")
	}
	if c.MinDelta < 0 {
		return errors.New("trainer: min delta must not be negative")
	}
	return nil
}

// EpochRecord is one row of training history.
type EpochRecord struct {
	Epoch       int     `json:"epoch"`
	Loss        float32 `json:"loss"`
	Accuracy    float32 `json:"accuracy"`
	ValLoss     float32 `json:"val_loss"`
	ValAccuracy float32 `json:"val_accuracy"`

	Duration     time.Duration `json:"duration_ns"`
	ImagesPerSec float64       `json:"images_per_sec"`
}

// History is the ordered per-epoch records of one run.
type History []EpochRecord

// Result summarizes a finished run. The model carries the weights of
// the best validation epoch, not necessarily the last one.
type Result struct {
	History     History
	BestEpoch   int
	BestValLoss float32
	Reason      StopReason
}

// Trainer drives Fit and exposes its state.
type Trainer struct {
	cfg   Config
	log   *slog.Logger
	state State
}

func New(cfg Config, log *slog.Logger) (*Trainer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &Trainer{cfg: cfg, log: log}, nil
}

// State returns the trainer's current state.
func (t *Trainer) State() State {
	return t.state
}

// Fit trains model on train, validating on val after every epoch.
// It stops at the epoch cap, when patience runs out, or when ctx is
// cancelled; in every case the best weights seen are restored before
// returning.
func (t *Trainer) Fit(ctx context.Context, model *nn.Model, opt optim.Optimizer, train, val *pipeline.Pipeline) (*Result, error) {
	t.state = StateRunning
	defer func() { t.state = StateStopped }()

	stopper := newEarlyStop(t.cfg.Patience, t.cfg.MinDelta)
	result := &Result{Reason: StopEpochCap}
	var window metrics.Window

	t.log.Info("training started",
		"epochs", t.cfg.Epochs,
		"patience", t.cfg.Patience,
		"train_samples", train.NumSamples(),
		"val_samples", val.NumSamples(),
		"parameters", model.NumParameters())

	for epoch := 1; epoch <= t.cfg.Epochs; epoch++ {
		start := time.Now()

		loss, acc, err := t.trainEpoch(ctx, model, opt, train, &window)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				result.Reason = StopCancelled
				break
			}
			return nil, err
		}

		valLoss, valAcc, err := Evaluate(ctx, model, val)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				result.Reason = StopCancelled
				break
			}
			return nil, err
		}

		snap := window.Snapshot()
		rec := EpochRecord{
			Epoch:        epoch,
			Loss:         loss,
			Accuracy:     acc,
			ValLoss:      valLoss,
			ValAccuracy:  valAcc,
			Duration:     time.Since(start),
			ImagesPerSec: snap.ImagesPerSec,
		}
		result.History = append(result.History, rec)

		t.log.Info("epoch finished",
			"epoch", epoch,
			"loss", loss,
			"accuracy", acc,
			"val_loss", valLoss,
			"val_accuracy", valAcc,
			"images_per_sec", int(snap.ImagesPerSec),
			"avg_data_ms", snap.AvgDataMS,
			"avg_compute_ms", snap.AvgComputeMS)

		if stopper.Observe(model, epoch, valLoss) {
			result.Reason = StopEarly
			t.log.Info("early stopping", "epoch", epoch, "best_epoch", stopper.bestEpoch, "best_val_loss", stopper.bestLoss)
			break
		}
	}

	if err := stopper.Restore(model); err != nil {
		return nil, fmt.Errorf("restore best weights: %w", err)
	}
	result.BestEpoch = stopper.bestEpoch
	result.BestValLoss = stopper.bestLoss

	t.log.Info("training finished",
		"reason", string(result.Reason),
		"epochs_run", len(result.History),
		"best_epoch", result.BestEpoch,
		"best_val_loss", result.BestValLoss)
	return result, nil
}

// trainEpoch runs one pass over the training pipeline, stepping the
// optimizer per batch. Returns mean loss and accuracy weighted by
// batch size.
func (t *Trainer) trainEpoch(ctx context.Context, model *nn.Model, opt optim.Optimizer, train *pipeline.Pipeline, window *metrics.Window) (float32, float32, error) {
	cursor := train.Run()
	defer cursor.Close()

	var lossSum, accSum float64
	var seen int
	for {
		if err := ctx.Err(); err != nil {
			return 0, 0, err
		}

		dataStart := time.Now()
		batch, ok := cursor.Next()
		if !ok {
			break
		}
		dataTime := time.Since(dataStart)

		computeStart := time.Now()
		opt.ZeroGrad()
		logits := model.Forward(batch.Images)
		loss := nn.CrossEntropy(logits, batch.Labels)
		model.Backward(nn.CrossEntropyBackward(logits, batch.Labels))
		opt.Step()
		computeTime := time.Since(computeStart)

		window.Record(batch.Size, dataTime, computeTime)
		lossSum += float64(loss) * float64(batch.Size)
		accSum += float64(nn.Accuracy(logits, batch.Labels)) * float64(batch.Size)
		seen += batch.Size
	}
	if seen == 0 {
		return 0, 0, errors.New("trainer: training pipeline yielded no batches")
	}
	return float32(lossSum / float64(seen)), float32(accSum / float64(seen)), nil
}

// Evaluate runs a forward-only pass over p and returns mean loss and
// accuracy weighted by batch size.
func Evaluate(ctx context.Context, model *nn.Model, p *pipeline.Pipeline) (float32, float32, error) {
	cursor := p.Run()
	defer cursor.Close()

	var lossSum, accSum float64
	var seen int
	for {
		if err := ctx.Err(); err != nil {
			return 0, 0, err
		}
		batch, ok := cursor.Next()
		if !ok {
			break
		}
		logits := model.Forward(batch.Images)
		lossSum += float64(nn.CrossEntropy(logits, batch.Labels)) * float64(batch.Size)
		accSum += float64(nn.Accuracy(logits, batch.Labels)) * float64(batch.Size)
		seen += batch.Size
	}
	if seen == 0 {
		return 0, 0, errors.New("trainer: evaluation pipeline yielded no batches")
	}
	return float32(lossSum / float64(seen)), float32(accSum / float64(seen)), nil
}
