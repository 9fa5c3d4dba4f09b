package dataset

import (
	"fmt"
	"path/filepath"
)

// Load reads a named split ("train" or "test") from the IDX files in
// dir. maxSamples > 0 caps the number of samples loaded (for subset
// experiments); 0 loads everything.
//
// Every sample's label is validated to lie in [0, 9]. Missing or
// malformed files are reported as ErrUnavailable.
func Load(dir, name string, maxSamples int) (*Split, error) {
	imageFile, labelFile, err := splitFiles(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	images, err := readImages(filepath.Join(dir, imageFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, imageFile, err)
	}
	labels, err := readLabels(filepath.Join(dir, labelFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, labelFile, err)
	}

	if len(images) != len(labels) {
		return nil, fmt.Errorf("%w: %s split has %d images but %d labels",
			ErrUnavailable, name, len(images), len(labels))
	}

	count := len(images)
	if maxSamples > 0 && count > maxSamples {
		count = maxSamples
	}

	samples := make([]Sample, count)
	for i := 0; i < count; i++ {
		label := int(labels[i])
		if label >= NumClasses {
			return nil, fmt.Errorf("%w: sample %d has label %d out of range [0, %d)",
				ErrUnavailable, i, label, NumClasses)
		}
		samples[i] = Sample{Image: images[i], Label: label}
	}

	return &Split{Name: name, Samples: samples}, nil
}
