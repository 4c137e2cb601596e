package dice

import "go.uber.org/zap"

// resolution is the granularity used to turn an integer Source into a float.
const resolution = 1 << 30

// Roller wraps a Source and logger to provide the probability helpers used by
// the combat engine. Every draw is logged at debug level with a label.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewRoller creates a Roller that draws from src and logs each draw to logger.
//
// Precondition: src must be non-nil. A nil logger disables logging.
func NewRoller(src Source, logger *zap.Logger) *Roller {
	if src == nil {
		panic("dice.NewRoller: src must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Roller{src: src, logger: logger}
}

// Source returns the underlying randomness source.
func (r *Roller) Source() Source { return r.src }

// Intn returns an int in [0, n) and logs it under label.
//
// Precondition: n > 0.
func (r *Roller) Intn(label string, n int) int {
	v := r.src.Intn(n)
	r.logger.Debug("dice draw",
		zap.String("label", label),
		zap.Int("n", n),
		zap.Int("value", v),
	)
	return v
}

// Float returns a float in [0, 1) and logs it under label.
//
// Postcondition: 0 <= result < 1.
func (r *Roller) Float(label string) float64 {
	v := float64(r.src.Intn(resolution)) / resolution
	r.logger.Debug("dice float",
		zap.String("label", label),
		zap.Float64("value", v),
	)
	return v
}

// Between returns a float uniformly distributed in [lo, hi).
//
// Precondition: lo <= hi.
// Postcondition: lo <= result < hi, or result == lo when lo == hi.
func (r *Roller) Between(label string, lo, hi float64) float64 {
	return lo + (hi-lo)*r.Float(label)
}

// Chance reports whether an event with probability p occurs.
// p <= 0 never occurs and p >= 1 always occurs; neither consumes a draw.
func (r *Roller) Chance(label string, p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return r.Float(label) < p
}
