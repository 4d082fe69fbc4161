package roster

import (
	"cmp"
	"slices"

	"github.com/jakechorley/duty-roster/pkg/core/model"
)

// index holds positional lookups over a week. Doctors and shifts are
// addressed by their position in the week's slices.
type index struct {
	week *model.Week

	doctorPos map[string]int
	shiftPos  map[string]int

	shiftsByDay [model.DaysPerWeek][]int
	nightsByDay [model.DaysPerWeek][]int
	nights      []int
	twentyFours []int
	specialists []int

	// chronological is every shift ordered by day, start hour, then input order
	chronological []int
}

func newIndex(week *model.Week) *index {
	idx := &index{
		week:      week,
		doctorPos: make(map[string]int, len(week.Doctors)),
		shiftPos:  make(map[string]int, len(week.Shifts)),
	}

	for d, doc := range week.Doctors {
		idx.doctorPos[doc.ID] = d
		if doc.Role.IsSpecialist() {
			idx.specialists = append(idx.specialists, d)
		}
	}

	for s, sh := range week.Shifts {
		idx.shiftPos[sh.ID] = s
		idx.shiftsByDay[sh.Day] = append(idx.shiftsByDay[sh.Day], s)
		if sh.IsNight() {
			idx.nights = append(idx.nights, s)
			idx.nightsByDay[sh.Day] = append(idx.nightsByDay[sh.Day], s)
		}
		if sh.IsTwentyFour() {
			idx.twentyFours = append(idx.twentyFours, s)
		}
		idx.chronological = append(idx.chronological, s)
	}

	slices.SortStableFunc(idx.chronological, func(a, b int) int {
		return cmp.Compare(week.Shifts[a].AbsStart(), week.Shifts[b].AbsStart())
	})

	return idx
}

// restConflict reports whether a doctor working both shifts would get less
// than minRest hours between them. Overlapping pairs are left to the one
// shift per day and recovery rules.
func restConflict(a, b model.Shift, minRest int) bool {
	if gap := b.AbsStart() - a.AbsEnd(); gap > 0 && gap < minRest {
		return true
	}
	if gap := a.AbsStart() - b.AbsEnd(); gap > 0 && gap < minRest {
		return true
	}
	return false
}

// windows returns the start day of every rolling window of n consecutive days
func windows(n int) []model.Day {
	var starts []model.Day
	for i := 0; i+n <= model.DaysPerWeek; i++ {
		starts = append(starts, model.Day(i))
	}
	return starts
}
