package domain

// MaxScore caps every additive score in the network features.
const MaxScore = 100

// CappedPoints awards perUnit points per count, never more than max.
func CappedPoints(count, perUnit, max int) int {
	if count <= 0 {
		return 0
	}
	points := count * perUnit
	if points > max {
		return max
	}
	return points
}

// ClampScore bounds a summed score to [0, MaxScore].
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}
