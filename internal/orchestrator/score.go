package orchestrator

// ScoreInput is the total set of inputs the score is a function of (§8
// invariant 6: "Score is a total function of (tests_passing,
// total_time_taken, total_commits, total_fixes_successful)").
type ScoreInput struct {
	AllDefectsResolved bool
	TestsPassing       bool
	TotalTimeSeconds   float64
	TotalCommits       int
	FixesSuccessful    int
}

// Score implements §4.7's scoring formula:
//   - base 100 if all defects resolved and tests pass
//   - else min(100, 40 + 15*successful_fixes)
//   - zero if no fixes landed and failures remain
//   - +10 speed bonus if total wall time < 300s and base is 100
//   - -2 commit penalty per commit over 20
//   - clamped to [0, 100]
func Score(in ScoreInput) int {
	var base int
	switch {
	case in.AllDefectsResolved && in.TestsPassing:
		base = 100
	case in.FixesSuccessful == 0 && !in.TestsPassing:
		base = 0
	default:
		base = 40 + 15*in.FixesSuccessful
		if base > 100 {
			base = 100
		}
	}

	score := base
	if base == 100 && in.TotalTimeSeconds < 300 {
		score += 10
	}
	if in.TotalCommits > 20 {
		score -= 2 * (in.TotalCommits - 20)
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}
