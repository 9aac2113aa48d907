package game

// AdaptWindow is the number of answers a Session collects before it
// reconsiders the level. With three lives per run a window of three is the
// largest in which a struggling player can still be moved down.
const AdaptWindow = 3

// NextLevel decides the level after a window of total answers with correct
// right. It goes up at 90% accuracy with at most one mistake, down below 50%
// or with more than five mistakes, and otherwise stays. The result is kept
// within [1, MaxLevel].
func NextLevel(level, correct, total int) int {
	if total <= 0 {
		return level
	}
	accuracy := float64(correct) / float64(total)
	mistakes := total - correct
	switch {
	case accuracy >= 0.9 && mistakes <= 1:
		level++
	case accuracy < 0.5 || mistakes > 5:
		level--
	}
	return min(MaxLevel, max(1, level))
}
