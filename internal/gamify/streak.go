package gamify

// BaseStreakThreshold is the first streak length that awards bonus gems.
const BaseStreakThreshold = 5

// NextStreakThreshold returns the next streak milestone above the current streak length.
func NextStreakThreshold(current int) int {
	thresholds := []int{5, 10, 15, 20}
	for _, t := range thresholds {
		if t > current {
			return t
		}
	}
	// Beyond 20, every 5.
	return ((current / 5) + 1) * 5
}

// IsStreakMilestone reports whether reaching length crosses a milestone.
func IsStreakMilestone(length int) bool {
	return length >= BaseStreakThreshold && NextStreakThreshold(length-1) == length
}

// MilestoneGems is the bonus for reaching a streak milestone: one gem per
// five days of streak.
func MilestoneGems(length int) int {
	if !IsStreakMilestone(length) {
		return 0
	}
	return length / BaseStreakThreshold
}
