// Package plot renders training curves to PNG files.
package plot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/digit-ml/digit/internal/trainer"
)

const (
	LossFile     = "loss.png"
	AccuracyFile = "accuracy.png"
)

// SaveCurves writes loss.png and accuracy.png under dir, each with the
// training and validation series over epochs. It returns the paths of
// the written files.
func SaveCurves(history trainer.History, dir string) ([]string, error) {
	if len(history) == 0 {
		return nil, errors.New("plot: empty history")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("plot: create dir: %w", err)
	}

	lossPath := filepath.Join(dir, LossFile)
	if err := saveCurve(lossPath, "Loss", history,
		func(r trainer.EpochRecord) float64 { return float64(r.Loss) },
		func(r trainer.EpochRecord) float64 { return float64(r.ValLoss) },
	); err != nil {
		return nil, err
	}

	accPath := filepath.Join(dir, AccuracyFile)
	if err := saveCurve(accPath, "Accuracy", history,
		func(r trainer.EpochRecord) float64 { return float64(r.Accuracy) },
		func(r trainer.EpochRecord) float64 { return float64(r.ValAccuracy) },
	); err != nil {
		return nil, err
	}

	return []string{lossPath, accPath}, nil
}

func saveCurve(path, name string, history trainer.History, train, val func(trainer.EpochRecord) float64) error {
	p := plot.New()
	p.Title.Text = name + " over epochs"
	p.X.Label.Text = "Epoch"
	p.Y.Label.Text = name
	p.Legend.Top = true

	trainPts := make(plotter.XYs, len(history))
	valPts := make(plotter.XYs, len(history))
	for i, rec := range history {
		trainPts[i] = plotter.XY{X: float64(rec.Epoch), Y: train(rec)}
		valPts[i] = plotter.XY{X: float64(rec.Epoch), Y: val(rec)}
	}

	if err := plotutil.AddLinePoints(p, "train", trainPts, "validation", valPts); err != nil {
		return fmt.Errorf("plot: add series: %w", err)
	}
	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("plot: save %s: %w", path, err)
	}
	return nil
}
