package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/digit-ml/digit/internal/checkpoint"
	"github.com/digit-ml/digit/internal/compute"
	"github.com/digit-ml/digit/internal/infer"
)

func newInferCmd() *cobra.Command {
	var modelPath string

	cmd := &cobra.Command{
		Use:   "infer <image.png>",
		Short: "Classify a single 28x28 digit image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := digitNet(compute.New(0))
			if err != nil {
				return err
			}
			if _, err := checkpoint.Load(modelPath, model, nil); err != nil {
				return err
			}

			input, err := infer.LoadImage(args[0])
			if err != nil {
				return err
			}
			pred, err := infer.Predict(model, input)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "digit: %d\n", pred.Digit)
			for i, logit := range pred.Logits {
				fmt.Fprintf(cmd.OutOrStdout(), "  %d: %+.4f\n", i, logit)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&modelPath, "model", "m", "out/model.ckpt", "checkpoint file")
	return cmd
}
