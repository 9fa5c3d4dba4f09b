// Package dataset loads the MNIST handwritten-digit dataset.
//
// Splits are read from the official IDX binary files in a local data
// directory. Missing files are fetched once from a public mirror and
// cached, so repeated runs work offline. Any fetch or parse failure is
// reported as ErrUnavailable with the cause attached.
package dataset

import (
	"errors"
	"fmt"
)

// ErrUnavailable indicates the dataset could not be fetched or read.
var ErrUnavailable = errors.New("dataset unavailable")

// Image geometry and label range for MNIST.
const (
	ImageRows  = 28
	ImageCols  = 28
	ImageSize  = ImageRows * ImageCols
	NumClasses = 10
)

// Split names accepted by Load.
const (
	TrainSplit = "train"
	TestSplit  = "test"
)

// Sample is one labeled image: 28x28 8-bit intensities in row-major
// order plus a digit label in [0, 9]. Immutable after load.
type Sample struct {
	Image []byte
	Label int
}

// Split is a named, ordered collection of samples.
type Split struct {
	Name    string
	Samples []Sample
}

// NumSamples returns the number of samples in the split.
func (s *Split) NumSamples() int {
	return len(s.Samples)
}

// Subset returns a split containing the first n samples. Useful for
// toy-sized training runs; n <= 0 or n beyond the end returns the
// split unchanged.
func (s *Split) Subset(n int) *Split {
	if n <= 0 || n >= len(s.Samples) {
		return s
	}
	return &Split{Name: s.Name, Samples: s.Samples[:n]}
}

// splitFiles returns the IDX image and label file names for a split.
func splitFiles(name string) (imageFile, labelFile string, err error) {
	switch name {
	case TrainSplit:
		return "train-images-idx3-ubyte", "train-labels-idx1-ubyte", nil
	case TestSplit:
		return "t10k-images-idx3-ubyte", "t10k-labels-idx1-ubyte", nil
	default:
		return "", "", fmt.Errorf("unknown split %q (want %q or %q)", name, TrainSplit, TestSplit)
	}
}
