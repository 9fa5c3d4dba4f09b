package nn

import (
	"fmt"
	"math"

	"github.com/digit-ml/digit/internal/tensor"
)

// CrossEntropy computes the mean cross-entropy loss from raw logits.
//
// logits must be [batch, classes]; labels holds one class index per
// sample. Uses the log-sum-exp decomposition for numerical stability,
// so logits beyond the float32 exp range neither overflow nor
// underflow.
func CrossEntropy(logits *tensor.Tensor, labels []int) float32 {
	shape := logits.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("cross entropy: logits must be 2D [batch, classes], got %v", shape))
	}
	batch, classes := shape[0], shape[1]
	if len(labels) != batch {
		panic(fmt.Sprintf("cross entropy: %d labels for batch of %d", len(labels), batch))
	}

	data := logits.Data()
	total := float32(0)
	for b := 0; b < batch; b++ {
		row := data[b*classes : (b+1)*classes]
		target := labels[b]
		if target < 0 || target >= classes {
			panic(fmt.Sprintf("cross entropy: label %d out of range [0, %d)", target, classes))
		}
		total += -logSoftmax(row)[target]
	}
	return total / float32(batch)
}

// CrossEntropyBackward returns the gradient of the mean cross-entropy
// loss with respect to the logits: (softmax(z) - onehot(label)) / batch.
func CrossEntropyBackward(logits *tensor.Tensor, labels []int) *tensor.Tensor {
	shape := logits.Shape()
	batch, classes := shape[0], shape[1]

	grad := tensor.New(shape)
	data := logits.Data()
	gd := grad.Data()

	for b := 0; b < batch; b++ {
		probs := softmax(data[b*classes : (b+1)*classes])
		for i, p := range probs {
			if i == labels[b] {
				p -= 1
			}
			gd[b*classes+i] = p / float32(batch)
		}
	}
	return grad
}

// Accuracy returns the fraction of samples whose argmax logit matches
// the label.
func Accuracy(logits *tensor.Tensor, labels []int) float32 {
	shape := logits.Shape()
	batch, classes := shape[0], shape[1]

	data := logits.Data()
	correct := 0
	for b := 0; b < batch; b++ {
		if Argmax(data[b*classes:(b+1)*classes]) == labels[b] {
			correct++
		}
	}
	return float32(correct) / float32(batch)
}

// Argmax returns the index of the largest value.
func Argmax(z []float32) int {
	maxIdx := 0
	maxVal := z[0]
	for i := 1; i < len(z); i++ {
		if z[i] > maxVal {
			maxVal = z[i]
			maxIdx = i
		}
	}
	return maxIdx
}

// logSoftmax computes log(softmax(z)) with the log-sum-exp trick:
// LogSoftmax(z)[i] = z[i] - (max(z) + log(sum(exp(z - max(z))))).
func logSoftmax(z []float32) []float32 {
	maxZ := z[0]
	for _, v := range z[1:] {
		if v > maxZ {
			maxZ = v
		}
	}

	sumExp := float32(0)
	for _, v := range z {
		sumExp += float32(math.Exp(float64(v - maxZ)))
	}
	logSumExp := maxZ + float32(math.Log(float64(sumExp)))

	out := make([]float32, len(z))
	for i, v := range z {
		out[i] = v - logSumExp
	}
	return out
}

// softmax computes exp(logSoftmax(z)).
func softmax(z []float32) []float32 {
	logProbs := logSoftmax(z)
	out := make([]float32, len(logProbs))
	for i, lp := range logProbs {
		out[i] = float32(math.Exp(float64(lp)))
	}
	return out
}
