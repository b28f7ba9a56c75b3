// internal/matching/calibration/metrics.go
package calibration

import (
	"fmt"
	"math"

	stderrors "referwell-matching/internal/common/errors"
)

// Metrics summarizes how well calibrated probabilities track outcomes.
type Metrics struct {
	Brier                    float64 `json:"brier"`
	LogLoss                  float64 `json:"logLoss"`
	ExpectedCalibrationError float64 `json:"expectedCalibrationError"`
}

const eceBins = 10

// Evaluate calibrates the given raw scores and scores them against the
// observed binary outcomes.
func (c *Calibrator) Evaluate(rawScores, labels []float64) (Metrics, error) {
	if len(rawScores) != len(labels) {
		return Metrics{}, stderrors.NewCalibrationDataInvalidError(
			fmt.Sprintf("scores: %d, labels: %d", len(rawScores), len(labels)))
	}
	if len(rawScores) == 0 {
		return Metrics{}, stderrors.NewCalibrationDataInvalidError("empty evaluation data")
	}

	probs := c.Calibrate(rawScores)
	return Metrics{
		Brier:                    brierScore(probs, labels),
		LogLoss:                  logLoss(probs, labels),
		ExpectedCalibrationError: expectedCalibrationError(probs, labels),
	}, nil
}

func brierScore(probs, labels []float64) float64 {
	var total float64
	for i := range probs {
		diff := probs[i] - labels[i]
		total += diff * diff
	}
	return total / float64(len(probs))
}

func logLoss(probs, labels []float64) float64 {
	const eps = 1e-15
	var total float64
	for i := range probs {
		p := math.Min(math.Max(probs[i], eps), 1-eps)
		if labels[i] == 1 {
			total -= math.Log(p)
		} else {
			total -= math.Log(1 - p)
		}
	}
	return total / float64(len(probs))
}

// expectedCalibrationError bins probabilities into 10 equal-width bins over
// [0,1] and sums |avg confidence - accuracy| weighted by bin population.
func expectedCalibrationError(probs, labels []float64) float64 {
	var binConf, binAcc [eceBins]float64
	var binCount [eceBins]int

	for i, p := range probs {
		bin := int(p * eceBins)
		if bin >= eceBins {
			bin = eceBins - 1 // p == 1.0
		}
		binConf[bin] += p
		binAcc[bin] += labels[i]
		binCount[bin]++
	}

	total := float64(len(probs))
	var ece float64
	for b := 0; b < eceBins; b++ {
		if binCount[b] == 0 {
			continue
		}
		n := float64(binCount[b])
		ece += math.Abs(binConf[b]/n-binAcc[b]/n) * (n / total)
	}
	return ece
}
