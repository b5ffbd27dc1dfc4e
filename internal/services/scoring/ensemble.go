package scoring

import "math"

// Blend combines the two scorer outputs, applies jitter and clamps the
// result to the configured score range.
func Blend(rule, neural float64, cfg EnsembleConfig, j Jitter) int {
	ensemble := cfg.RuleWeight*rule + cfg.NeuralWeight*neural
	raw := cfg.Base + ensemble*cfg.Multiplier
	if j != nil {
		raw += j.Offset()
	}
	clamped := math.Max(float64(cfg.Min), math.Min(float64(cfg.Max), raw))
	if math.IsNaN(raw) {
		clamped = float64(cfg.Min)
	}
	return int(math.Round(clamped))
}
