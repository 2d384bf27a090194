package monitoring

import (
	"sync"

	"github.com/driveloop/driveloop/sched"
)

// driveStats accumulates drive activity observed through the scheduler's
// hooks. The monitor serves it on /api/progress so a consumer can display
// sub-threshold progress and how many calls each tick coalesced.
type driveStats struct {
	sync.Mutex

	accepted     uint64
	throttled    uint64
	deferred     uint64
	lastFraction float64
	lastRunCount int
}

// DriveStatsSnapshot is the JSON view of the accumulated drive activity.
type DriveStatsSnapshot struct {
	Accepted     uint64  `json:"accepted"`
	Throttled    uint64  `json:"throttled"`
	Deferred     uint64  `json:"deferred"`
	LastFraction float64 `json:"last_fraction"`
	LastRunCount int     `json:"last_run_count"`
}

// Func records the hook invocation.
func (s *driveStats) Func(ctx sched.HookCtx) {
	s.Lock()
	defer s.Unlock()

	switch ctx.Pos {
	case sched.HookPosDriveComplete:
		s.accepted++
	case sched.HookPosDriveDeferred:
		s.deferred++
	case sched.HookPosDriveThrottled:
		info := ctx.Detail.(sched.ThrottleInfo)
		s.throttled++
		s.lastFraction = info.Fraction
		s.lastRunCount = info.RunCount
	}
}

func (s *driveStats) snapshot() DriveStatsSnapshot {
	s.Lock()
	defer s.Unlock()

	return DriveStatsSnapshot{
		Accepted:     s.accepted,
		Throttled:    s.throttled,
		Deferred:     s.deferred,
		LastFraction: s.lastFraction,
		LastRunCount: s.lastRunCount,
	}
}
