package cli

import (
	"github.com/digit-ml/digit/internal/compute"
	"github.com/digit-ml/digit/internal/dataset"
	"github.com/digit-ml/digit/internal/nn"
)

// digitNet is the fixed architecture for 28x28 digit images: a 3-filter
// 4x4 same-padded convolution, a 64-unit hidden layer, and a 10-way
// output head.
func digitNet(ctx *compute.Context) (*nn.Model, error) {
	return nn.Build(ctx, nn.Config{
		nn.Conv{Filters: 3, Kernel: 4, Pad: true},
		nn.Activation{Kind: "relu"},
		nn.Flatten{},
		nn.Dense{Units: 64},
		nn.Activation{Kind: "relu"},
		nn.Dense{Units: dataset.NumClasses},
	}, []int{1, dataset.ImageRows, dataset.ImageCols})
}
