package dataset

// Synthetic builds a deterministic stand-in split for tests and dry
// runs without the real MNIST files. Each digit d gets a bright
// horizontal band whose position depends on d, so the classes are
// linearly separable and a tiny model can overfit them quickly.
func Synthetic(name string, n int) *Split {
	samples := make([]Sample, n)
	for i := range samples {
		label := i % NumClasses
		image := make([]byte, ImageSize)

		startRow := label*2 + 2
		for row := startRow; row < startRow+4 && row < ImageRows; row++ {
			for col := 4; col < ImageCols-4; col++ {
				image[row*ImageCols+col] = 204
			}
		}

		samples[i] = Sample{Image: image, Label: label}
	}
	return &Split{Name: name, Samples: samples}
}
