package tasbih

// Progress derives the display numbers for a count against an optional goal.
// A zero Target means no goal is set.
type Progress struct {
	Count  int
	Target int
}

func (p Progress) HasGoal() bool {
	return p.Target > 0
}

// Display counts down to the goal when one is set, otherwise it counts up.
func (p Progress) Display() int {
	if !p.HasGoal() {
		return p.Count
	}

	return max(0, p.Target-p.Count)
}

// Percent is progress toward the goal, or progress within the current round
// when there is no goal.
func (p Progress) Percent() float64 {
	if !p.HasGoal() {
		return float64(p.Count%RoundSize) / RoundSize * 100
	}

	return min(100, float64(p.Count)/float64(p.Target)*100)
}

func (p Progress) Complete() bool {
	return p.HasGoal() && p.Count >= p.Target
}

// Clamp returns the delta a tap may actually apply: forward taps stop at the
// goal and no tap takes the count below zero.
func (p Progress) Clamp(delta int) int {
	if p.HasGoal() && p.Count+delta > p.Target {
		delta = p.Target - p.Count
		if delta < 0 {
			return 0
		}
	}

	if p.Count+delta < 0 {
		return -p.Count
	}

	return delta
}

func roundsOf(count int) int {
	return count / RoundSize
}
