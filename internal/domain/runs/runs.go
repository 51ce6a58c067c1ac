// Package runs detects unanswered scoring sequences ("runs").
package runs

import (
	"github.com/okian/swing/internal/domain/model"
)

// Detect scans events for maximal stretches in which only one side scored and
// returns those whose point total exceeds minPoints. Non-scoring events do not
// break a run; a score by the other side does. StartPosition/EndPosition are
// the positions of the first and last scoring plays of the run.
func Detect(events []model.PlayEvent, minPoints int) []model.RunInfo {
	var (
		out     []model.RunInfo
		current *model.RunInfo
		prev    model.Score
	)
	flush := func() {
		if current != nil && current.Points > minPoints {
			out = append(out, *current)
		}
		current = nil
	}

	for i, e := range events {
		score := e.Score()
		homeDelta := score.Home - prev.Home
		awayDelta := score.Away - prev.Away
		prev = score

		var side model.Side
		var points int
		switch {
		case homeDelta > 0 && awayDelta > 0:
			// Both sides moved on one row (data correction); it ends any run.
			flush()
			continue
		case homeDelta > 0:
			side, points = model.SideHome, homeDelta
		case awayDelta > 0:
			side, points = model.SideAway, awayDelta
		default:
			continue
		}

		if current != nil && current.Team != side {
			flush()
		}
		if current == nil {
			current = &model.RunInfo{Team: side, StartPosition: i}
		}
		current.Points += points
		current.EndPosition = i
	}
	flush()
	return out
}

// ByEndPosition indexes runs by the position of the scoring play that ends them.
func ByEndPosition(runs []model.RunInfo) map[int]model.RunInfo {
	idx := make(map[int]model.RunInfo, len(runs))
	for _, r := range runs {
		idx[r.EndPosition] = r
	}
	return idx
}
