package score

import "math"

const (
	// PushCeil is the commit count at which the push factor saturates.
	PushCeil = 100.0
	// TxCeil is the transaction count at which the tx factor saturates.
	TxCeil = 200
)

// NormalizePushes maps a commit count into [0.0, 1.0], saturating at PushCeil.
func NormalizePushes(count float64) float64 {
	return clampedRatio(count, PushCeil)
}

// NormalizeTx maps a transaction count into [0.0, 1.0], saturating at TxCeil.
func NormalizeTx(count uint64) float64 {
	if count >= TxCeil {
		return 1
	}
	return clampedRatio(float64(count), TxCeil)
}

// clampedRatio maps val linearly into [0.0, 1.0] with ceil as the saturation point.
func clampedRatio(val, ceil float64) float64 {
	if math.IsNaN(val) || ceil <= 0 || val <= 0 {
		return 0
	}
	if val >= ceil {
		return 1
	}
	return val / ceil
}
