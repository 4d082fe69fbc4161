package roster

import "fmt"

// Weights scales each soft goal in the objective
type Weights struct {
	// Preference is applied to every like (-1) and dislike (+1) that is rostered
	Preference int64

	// NightSpread is applied to max(night count) - min(night count)
	NightSpread int64

	// RatioSpread is applied to the spread of the fixed point workload ratio
	// (1000 = working exactly at the personal cap)
	RatioSpread int64

	// Shortfall is applied to every unfilled staffing slot in relaxed mode.
	// It is a floor: a session raises it above the combined range of the
	// other terms, so slots stay unfilled only when full cover is impossible.
	Shortfall int64
}

// DefaultWeights returns the standard weighting: ratio fairness highest,
// preferences lowest
func DefaultWeights() Weights {
	return Weights{
		Preference:  3,
		NightSpread: 6,
		RatioSpread: 8,
		Shortfall:   1000,
	}
}

// Limits holds the numeric parameters of the working time rules
type Limits struct {
	// MinRestHours is the minimum gap between the end of one shift and the
	// start of the next
	MinRestHours int

	// NightWindowDays and MaxNightsInWindow bound night/24h shifts in any
	// rolling window of consecutive days
	NightWindowDays   int
	MaxNightsInWindow int

	// MaxWorkedDays is the number of days in the week a doctor may be rostered
	MaxWorkedDays int

	// ExtraStaff is how many doctors beyond the minimum a shift may take.
	// The default of 0 tightens minimum staffing to exact staffing: a shift
	// gets min_staff doctors, never more. UnlimitedExtraStaff leaves staffing
	// unbounded above.
	ExtraStaff int
}

// UnlimitedExtraStaff disables the staffing ceiling
const UnlimitedExtraStaff = -1

// DefaultLimits returns the standard working time limits
func DefaultLimits() Limits {
	return Limits{
		MinRestHours:      11,
		NightWindowDays:   3,
		MaxNightsInWindow: 2,
		MaxWorkedDays:     6,
	}
}

// Options configures one roster session
type Options struct {
	Weights Weights
	Limits  Limits

	// RelaxedStaffing turns minimum staffing into a penalised soft goal so a
	// partial roster with explicit shortfall is produced instead of INFEASIBLE
	RelaxedStaffing bool
}

// DefaultOptions returns the default weights and limits with strict staffing
func DefaultOptions() Options {
	return Options{
		Weights: DefaultWeights(),
		Limits:  DefaultLimits(),
	}
}

// Validate checks the options are usable
func (o Options) Validate() error {
	if o.Weights.Preference < 0 || o.Weights.NightSpread < 0 || o.Weights.RatioSpread < 0 || o.Weights.Shortfall < 0 {
		return fmt.Errorf("objective weights must not be negative: %+v", o.Weights)
	}
	if o.Limits.MinRestHours < 0 {
		return fmt.Errorf("min rest hours must not be negative, got %d", o.Limits.MinRestHours)
	}
	if o.Limits.NightWindowDays < 1 {
		return fmt.Errorf("night window must be at least one day, got %d", o.Limits.NightWindowDays)
	}
	if o.Limits.MaxNightsInWindow < 0 {
		return fmt.Errorf("max nights in window must not be negative, got %d", o.Limits.MaxNightsInWindow)
	}
	if o.Limits.MaxWorkedDays < 0 {
		return fmt.Errorf("max worked days must not be negative, got %d", o.Limits.MaxWorkedDays)
	}
	if o.Limits.ExtraStaff < UnlimitedExtraStaff {
		return fmt.Errorf("extra staff must be %d (unlimited) or more, got %d", UnlimitedExtraStaff, o.Limits.ExtraStaff)
	}
	return nil
}
