package sched

import (
	"github.com/driveloop/driveloop/sched/id"
)

// An Action is a callback attached to a timer or a dispatch label.
type Action func()

// TimerFireInfo describes a timer fire. It is carried in the Detail field of
// HookPosTimerFire hook invocations.
type TimerFireInfo struct {
	ID   string
	Kind string // "one_shot" or "recurring"
	Due  VTimeInSec
}

type oneShotTimer struct {
	id       string
	fireAt   VTimeInSec
	action   Action
	fired    bool
	canceled bool
}

type recurringTimer struct {
	id         string
	nextFireAt VTimeInSec
	period     VTimeInSec
	action     Action
	canceled   bool
}

// timerStore holds the pending one-shot and recurring timers of one
// Scheduler. Entries are kept in registration order, which also defines the
// firing order among simultaneously due entries.
type timerStore struct {
	idGen     id.IDGenerator
	oneShots  []*oneShotTimer
	recurring []*recurringTimer
}

func (s *timerStore) addOneShot(fireAt VTimeInSec, action Action) string {
	t := &oneShotTimer{
		id:     s.idGen.Generate(),
		fireAt: fireAt,
		action: action,
	}
	s.oneShots = append(s.oneShots, t)

	return t.id
}

func (s *timerStore) addRecurring(
	nextFireAt VTimeInSec,
	period VTimeInSec,
	action Action,
) string {
	t := &recurringTimer{
		id:         s.idGen.Generate(),
		nextFireAt: nextFireAt,
		period:     period,
		action:     action,
	}
	s.recurring = append(s.recurring, t)

	return t.id
}

// cancel marks the timer with the given ID so that it never fires again. The
// entry is dropped at the next compaction. Marking instead of removing keeps
// cancellation safe when it is issued from a callback running inside the
// drive pipeline.
func (s *timerStore) cancel(timerID string) bool {
	for _, t := range s.oneShots {
		if t.id == timerID && !t.fired && !t.canceled {
			t.canceled = true
			return true
		}
	}

	for _, t := range s.recurring {
		if t.id == timerID && !t.canceled {
			t.canceled = true
			return true
		}
	}

	return false
}

func (s *timerStore) compactOneShots() {
	survivors := make([]*oneShotTimer, 0, len(s.oneShots))
	for _, t := range s.oneShots {
		if !t.fired && !t.canceled {
			survivors = append(survivors, t)
		}
	}
	s.oneShots = survivors
}

func (s *timerStore) compactRecurring() {
	survivors := make([]*recurringTimer, 0, len(s.recurring))
	for _, t := range s.recurring {
		if !t.canceled {
			survivors = append(survivors, t)
		}
	}
	s.recurring = survivors
}
