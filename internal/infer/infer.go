// Package infer runs a trained model on single images.
package infer

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/digit-ml/digit/internal/dataset"
	"github.com/digit-ml/digit/internal/nn"
	"github.com/digit-ml/digit/internal/tensor"
)

var (
	// ErrImageLoad means the file could not be read or decoded.
	ErrImageLoad = errors.New("infer: image load failed")
	// ErrShapeMismatch means the image is not 28x28 grayscale-compatible.
	ErrShapeMismatch = errors.New("infer: image shape mismatch")
)

// Prediction is the model's answer for one image.
type Prediction struct {
	Digit  int
	Logits []float32
}

// LoadImage decodes a PNG or JPEG file into a normalized [1,1,28,28]
// input tensor. Pixels are scaled into [0,1] the same way the training
// pipeline scales them.
func LoadImage(path string) (*tensor.Tensor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageLoad, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrImageLoad, path, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() != dataset.ImageCols || bounds.Dy() != dataset.ImageRows {
		return nil, fmt.Errorf("%w: got %dx%d, want %dx%d",
			ErrShapeMismatch, bounds.Dx(), bounds.Dy(), dataset.ImageCols, dataset.ImageRows)
	}

	data := make([]float32, dataset.ImageSize)
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			data[i] = float32(g.Y) / 255.0
			i++
		}
	}
	return tensor.FromSlice(data, []int{1, 1, dataset.ImageRows, dataset.ImageCols})
}

// FromPixels builds a normalized input tensor from a raw 784-byte
// row-major image, as stored in the dataset.
func FromPixels(pixels []byte) (*tensor.Tensor, error) {
	if len(pixels) != dataset.ImageSize {
		return nil, fmt.Errorf("%w: got %d pixels, want %d", ErrShapeMismatch, len(pixels), dataset.ImageSize)
	}
	data := make([]float32, len(pixels))
	for i, p := range pixels {
		data[i] = float32(p) / 255.0
	}
	return tensor.FromSlice(data, []int{1, 1, dataset.ImageRows, dataset.ImageCols})
}

// Predict runs input through the model and returns the argmax digit
// with the raw logits.
func Predict(model *nn.Model, input *tensor.Tensor) (*Prediction, error) {
	want := tensor.Shape{1, 1, dataset.ImageRows, dataset.ImageCols}
	if !input.Shape().Equal(want) {
		return nil, fmt.Errorf("%w: input shape %v, want %v", ErrShapeMismatch, input.Shape(), want)
	}

	out := model.Forward(input)
	logits := make([]float32, len(out.Data()))
	copy(logits, out.Data())

	return &Prediction{Digit: nn.Argmax(logits), Logits: logits}, nil
}
