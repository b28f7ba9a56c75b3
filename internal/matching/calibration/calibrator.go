// internal/matching/calibration/calibrator.go
package calibration

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"

	stderrors "referwell-matching/internal/common/errors"
	"referwell-matching/internal/common/logger"
)

// Method selects the fitting strategy.
type Method string

const (
	MethodIsotonic Method = "isotonic"
	MethodPlatt    Method = "platt"
)

// Breakpoint is one step of the fitted isotonic function.
type Breakpoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type isotonicModel struct {
	Breakpoints []Breakpoint `json:"breakpoints"`
}

type plattModel struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
}

// Calibrator maps raw combined scores to probability estimates. Calibrate on
// an unfitted model is a passthrough. A failed Fit keeps whatever model was
// fitted before.
type Calibrator struct {
	mu     sync.RWMutex
	method Method
	iso    *isotonicModel
	platt  *plattModel
	logger logger.Logger
}

func New(method Method, log logger.Logger) *Calibrator {
	return &Calibrator{
		method: method,
		logger: log.WithFields(map[string]interface{}{"component": "calibration"}),
	}
}

// Fitted reports whether a model has been fitted or imported.
func (c *Calibrator) Fitted() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.iso != nil || c.platt != nil
}

// Method returns the configured fitting strategy.
func (c *Calibrator) Method() Method {
	return c.method
}

// Fit trains the calibrator on (raw score, binary outcome) pairs.
func (c *Calibrator) Fit(scores, labels []float64) error {
	if len(scores) != len(labels) {
		return stderrors.NewCalibrationDataInvalidError(
			fmt.Sprintf("scores: %d, labels: %d", len(scores), len(labels)))
	}
	if len(scores) == 0 {
		return stderrors.NewCalibrationDataInvalidError("empty training data")
	}
	for _, l := range labels {
		if l != 0 && l != 1 {
			return stderrors.NewCalibrationDataInvalidError(
				fmt.Sprintf("label %v is not binary", l))
		}
	}

	switch c.method {
	case MethodPlatt:
		model := fitPlatt(scores, labels)
		c.mu.Lock()
		c.platt = model
		c.iso = nil
		c.mu.Unlock()
	default:
		model := fitIsotonic(scores, labels)
		c.mu.Lock()
		c.iso = model
		c.platt = nil
		c.mu.Unlock()
	}

	c.logger.Info("calibration model fitted", map[string]interface{}{
		"method":  c.method,
		"samples": len(scores),
	})
	return nil
}

// Calibrate maps raw scores to probabilities in [0,1]. Unfitted models pass
// raw scores through unchanged.
func (c *Calibrator) Calibrate(scores []float64) []float64 {
	c.mu.RLock()
	iso, platt := c.iso, c.platt
	c.mu.RUnlock()

	out := make([]float64, len(scores))
	if iso == nil && platt == nil {
		c.logger.Warn("calibrate called on unfitted model, passing scores through", nil)
		copy(out, scores)
		return out
	}

	for i, s := range scores {
		if platt != nil {
			out[i] = sigmoid(platt.Slope*s + platt.Intercept)
		} else {
			out[i] = iso.predict(s)
		}
		out[i] = clamp01(out[i])
	}
	return out
}

// CalibrateOne is the single-score convenience form.
func (c *Calibrator) CalibrateOne(score float64) float64 {
	return c.Calibrate([]float64{score})[0]
}

// fitIsotonic runs pool-adjacent-violators over the (score, label) pairs
// sorted by score and records the resulting non-decreasing step function.
func fitIsotonic(scores, labels []float64) *isotonicModel {
	type pair struct{ x, y float64 }
	pairs := make([]pair, len(scores))
	for i := range scores {
		pairs[i] = pair{scores[i], labels[i]}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].x < pairs[j].x })

	type block struct {
		sum    float64
		weight float64
		minX   float64
	}
	blocks := make([]block, 0, len(pairs))
	for _, p := range pairs {
		blocks = append(blocks, block{sum: p.y, weight: 1, minX: p.x})
		for len(blocks) > 1 {
			last := blocks[len(blocks)-1]
			prev := blocks[len(blocks)-2]
			if prev.sum/prev.weight <= last.sum/last.weight {
				break
			}
			// Violation: merge the two blocks.
			merged := block{
				sum:    prev.sum + last.sum,
				weight: prev.weight + last.weight,
				minX:   prev.minX,
			}
			blocks = blocks[:len(blocks)-2]
			blocks = append(blocks, merged)
		}
	}

	model := &isotonicModel{Breakpoints: make([]Breakpoint, len(blocks))}
	for i, b := range blocks {
		model.Breakpoints[i] = Breakpoint{X: b.minX, Y: b.sum / b.weight}
	}
	return model
}

// predict evaluates the step function: the value of the highest breakpoint
// at or below x, or the first step below the fitted range.
func (m *isotonicModel) predict(x float64) float64 {
	bps := m.Breakpoints
	if len(bps) == 0 {
		return x
	}
	idx := sort.Search(len(bps), func(i int) bool { return bps[i].X > x })
	if idx == 0 {
		return bps[0].Y
	}
	return bps[idx-1].Y
}

// fitPlatt fits a single-feature logistic model by gradient descent. The
// problem is 2-parameter and convex, so a fixed schedule converges reliably.
func fitPlatt(scores, labels []float64) *plattModel {
	a, b := 1.0, 0.0
	n := float64(len(scores))
	const (
		iterations = 2000
		rate       = 0.5
	)

	for iter := 0; iter < iterations; iter++ {
		var gradA, gradB float64
		for i := range scores {
			p := sigmoid(a*scores[i] + b)
			diff := p - labels[i]
			gradA += diff * scores[i]
			gradB += diff
		}
		a -= rate * gradA / n
		b -= rate * gradB / n
	}
	return &plattModel{Slope: a, Intercept: b}
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// exportedModel is the portable serialized form: isotonic breakpoints or
// logistic coefficients, never an opaque blob.
type exportedModel struct {
	Method      Method       `json:"method"`
	Breakpoints []Breakpoint `json:"breakpoints,omitempty"`
	Slope       *float64     `json:"slope,omitempty"`
	Intercept   *float64     `json:"intercept,omitempty"`
}

// Export serializes the fitted model to JSON.
func (c *Calibrator) Export() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.iso == nil && c.platt == nil {
		return nil, stderrors.NewCalibrationDataInvalidError("no fitted model to export")
	}
	out := exportedModel{Method: c.method}
	if c.iso != nil {
		out.Breakpoints = c.iso.Breakpoints
	} else {
		out.Slope = &c.platt.Slope
		out.Intercept = &c.platt.Intercept
	}
	return json.Marshal(out)
}

// Import restores a model serialized with Export.
func (c *Calibrator) Import(data []byte) error {
	var in exportedModel
	if err := json.Unmarshal(data, &in); err != nil {
		return stderrors.NewCalibrationDataInvalidError(err.Error())
	}

	switch in.Method {
	case MethodIsotonic:
		if len(in.Breakpoints) == 0 {
			return stderrors.NewCalibrationDataInvalidError("isotonic model has no breakpoints")
		}
		c.mu.Lock()
		c.method = MethodIsotonic
		c.iso = &isotonicModel{Breakpoints: in.Breakpoints}
		c.platt = nil
		c.mu.Unlock()
	case MethodPlatt:
		if in.Slope == nil || in.Intercept == nil {
			return stderrors.NewCalibrationDataInvalidError("platt model is missing coefficients")
		}
		c.mu.Lock()
		c.method = MethodPlatt
		c.platt = &plattModel{Slope: *in.Slope, Intercept: *in.Intercept}
		c.iso = nil
		c.mu.Unlock()
	default:
		return stderrors.NewCalibrationDataInvalidError(
			fmt.Sprintf("unknown calibration method %q", in.Method))
	}
	return nil
}
