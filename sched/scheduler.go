package sched

import (
	"log"

	"github.com/driveloop/driveloop/resource"
	"github.com/driveloop/driveloop/sched/id"
)

// TapDecision is what a TapClassifier answers when a burst of coalesced
// drive calls is about to be processed.
type TapDecision int

const (
	// Proceed lets the drive run the pipeline normally.
	Proceed TapDecision = iota

	// Defer aborts the drive. No pipeline step runs and the coalesced call
	// count is kept, so the next drive attempt sees the same classification.
	Defer
)

// A TapClassifier inspects how many drive calls were coalesced by the
// throttle gate since the last accepted drive. Exactly one rejected call is
// reported as a single tap; two or more as a double tap.
//
// The counts reflect call coalescing only. They are a heuristic and carry no
// guarantee about the intent of any particular input source.
type TapClassifier interface {
	SingleTap() TapDecision
	DoubleTap() TapDecision
}

// ThrottleInfo describes a rejected drive call. It is carried in the Detail
// field of HookPosDriveThrottled hook invocations.
type ThrottleInfo struct {
	// Fraction is how far through the minimum interval the rejected call
	// arrived, in [0, 1).
	Fraction float64

	// RunCount is the number of consecutive rejected calls since the last
	// accepted drive, this one included.
	RunCount int
}

// A Scheduler is a cooperative, tick-driven scheduler and event engine. A
// host invokes Drive at its own cadence; the scheduler throttles the calls
// down to a requested minimum interval and, on each accepted call, runs the
// dispatch table, the event registry, the recurring timers, and the one-shot
// timers, in that order.
//
// A Scheduler is single-threaded. All registration calls and all Drive calls
// must come from the host's own thread of control.
type Scheduler struct {
	HookableBase

	clock       Clock
	clockSource ClockSource
	classifier  TapClassifier

	registry      resource.Registry
	mailbox       *resource.Mailbox
	selfID        string
	resourceCache []resource.Resource

	throttleRunCount int
	driven           bool

	timers   timerStore
	events   []Event
	dispatch dispatchTable
}

// NewScheduler creates a Scheduler that samples time from the given source.
func NewScheduler(source ClockSource) *Scheduler {
	if source == nil {
		log.Panic("a scheduler requires a clock source")
	}

	return &Scheduler{
		clockSource: source,
		timers: timerStore{
			idGen: id.NewSequentialIDGenerator(),
		},
	}
}

// WithTapClassifier sets the classifier consulted when coalesced drive calls
// are processed. Without a classifier, every accepted drive proceeds.
func (s *Scheduler) WithTapClassifier(c TapClassifier) *Scheduler {
	s.classifier = c
	return s
}

// WithResourceRegistry sets the host resource registry used by Refresh.
func (s *Scheduler) WithResourceRegistry(r resource.Registry) *Scheduler {
	s.registry = r
	return s
}

// WithMailbox sets the mailbox and the identity under which the scheduler
// reads its inbox.
func (s *Scheduler) WithMailbox(m *resource.Mailbox, selfID string) *Scheduler {
	s.mailbox = m
	s.selfID = selfID
	return s
}

// WithIDGenerator replaces the generator used for timer IDs.
func (s *Scheduler) WithIDGenerator(g id.IDGenerator) *Scheduler {
	s.timers.idGen = g
	return s
}

// Drive is the sole entry point invoked by the host on each of its own
// periodic callbacks. minInterval is the shortest accepted spacing between
// two logical ticks; calls arriving earlier are rejected and counted. label
// selects the dispatch table entry to run on an accepted drive; the empty
// label is a label like any other.
func (s *Scheduler) Drive(minInterval VTimeInSec, label string) {
	now := s.clockSource.Now()

	// The first-ever drive is accepted unconditionally.
	if s.driven && now-s.clock.current < minInterval {
		s.throttleRunCount++
		s.InvokeHook(HookCtx{
			Domain: s,
			Pos:    HookPosDriveThrottled,
			Item:   label,
			Detail: ThrottleInfo{
				Fraction: float64((now - s.clock.current) / minInterval),
				RunCount: s.throttleRunCount,
			},
		})
		return
	}

	if s.deferredByClassifier(label) {
		return
	}

	s.throttleRunCount = 0
	s.clock.advance(now)
	s.driven = true

	s.InvokeHook(HookCtx{Domain: s, Pos: HookPosDriveStart, Item: label})

	s.dispatch.invoke(label)
	s.processEvents()
	s.processRecurring()
	s.processOneShots()

	s.InvokeHook(HookCtx{Domain: s, Pos: HookPosDriveComplete, Item: label})
}

// deferredByClassifier classifies the coalesced call count measured before
// reset. A Defer answer aborts the drive without touching any store and
// without resetting the count, so the classification repeats on the next
// attempt.
func (s *Scheduler) deferredByClassifier(label string) bool {
	if s.classifier == nil {
		return false
	}

	var decision TapDecision
	switch {
	case s.throttleRunCount == 1:
		decision = s.classifier.SingleTap()
	case s.throttleRunCount > 1:
		decision = s.classifier.DoubleTap()
	default:
		return false
	}

	if decision == Defer {
		s.InvokeHook(HookCtx{Domain: s, Pos: HookPosDriveDeferred, Item: label})
		return true
	}

	return false
}

func (s *Scheduler) processEvents() {
	pending := s.events
	s.events = nil

	survivors := make([]Event, 0, len(pending))
	for _, e := range pending {
		if !e.Process() {
			survivors = append(survivors, e)
			continue
		}

		s.InvokeHook(HookCtx{Domain: s, Pos: HookPosEventDone, Item: e})
	}

	// Events registered from inside a callback were appended to s.events
	// while it was detached; they run for the first time on the next drive.
	s.events = append(survivors, s.events...)
}

func (s *Scheduler) processRecurring() {
	// Iterate over the entries present at the start of the step. Timers
	// registered by a firing action land behind the snapshot and are not
	// visited until the next drive.
	snapshot := s.timers.recurring
	for _, t := range snapshot {
		if t.canceled || t.nextFireAt > s.clock.current {
			continue
		}

		due := t.nextFireAt

		// Re-arm before invoking: a failing action does not stop the timer
		// from firing again next period. The timer catches up at most once
		// per drive, so a long gap between drives never produces a burst.
		t.nextFireAt = s.clock.current + t.period

		s.InvokeHook(HookCtx{
			Domain: s,
			Pos:    HookPosTimerFire,
			Detail: TimerFireInfo{ID: t.id, Kind: "recurring", Due: due},
		})
		t.action()
	}

	s.timers.compactRecurring()
}

func (s *Scheduler) processOneShots() {
	snapshot := s.timers.oneShots
	for _, t := range snapshot {
		if t.canceled || t.fired || t.fireAt > s.clock.current {
			continue
		}

		// Remove before invoking: fire-once semantics are unconditional,
		// regardless of what the action does.
		t.fired = true

		s.InvokeHook(HookCtx{
			Domain: s,
			Pos:    HookPosTimerFire,
			Detail: TimerFireInfo{ID: t.id, Kind: "one_shot", Due: t.fireAt},
		})
		t.action()
	}

	s.timers.compactOneShots()
}

// After schedules a one-shot action at origin + delay. The delay is relative
// to the scheduler's origin, not to the current time, so registrations made
// after a Reset use the new epoch.
func (s *Scheduler) After(delay VTimeInSec, action Action) string {
	if delay < 0 {
		log.Panic("cannot schedule a one-shot with a negative delay")
	}

	return s.timers.addOneShot(s.clock.origin+delay, action)
}

// AtAbsolute schedules a one-shot action at origin + t.
func (s *Scheduler) AtAbsolute(t VTimeInSec, action Action) string {
	return s.timers.addOneShot(s.clock.origin+t, action)
}

// Every schedules a recurring action. The first fire is at current + period;
// after each fire the timer re-arms one period after the drive that fired
// it.
func (s *Scheduler) Every(period VTimeInSec, action Action) string {
	if period <= 0 {
		log.Panic("a recurring timer requires a positive period")
	}

	return s.timers.addRecurring(s.clock.current+period, period, action)
}

// CancelTimer removes the pending one-shot or recurring timer with the given
// ID. It reports whether a pending timer was found.
func (s *Scheduler) CancelTimer(timerID string) bool {
	return s.timers.cancel(timerID)
}

// OnLabel appends a callback to the dispatch table entry for the label,
// creating the entry if absent.
func (s *Scheduler) OnLabel(label string, cb Action) {
	s.dispatch.add(label, cb)
}

// AddEvent registers an event handle. The handle is processed exactly once
// per accepted drive until it reports done.
func (s *Scheduler) AddEvent(e Event) {
	s.events = append(s.events, e)
}

// Reset moves the origin to the current time, discards any pending inbound
// mail, and refreshes the cached resource snapshot. Timers, events, and
// dispatch registrations survive a reset.
func (s *Scheduler) Reset() {
	s.clock.rebase()

	if s.mailbox != nil {
		s.mailbox.ReadAndClearInbox(s.selfID)
	}

	s.Refresh()
}

// Refresh re-synchronizes the cached resource snapshot from the registry.
func (s *Scheduler) Refresh() {
	if s.registry == nil {
		return
	}

	s.resourceCache = s.registry.Enumerate()
}

// Resources returns the resource snapshot taken at the last Reset or
// Refresh.
func (s *Scheduler) Resources() []resource.Resource {
	return s.resourceCache
}

// ReadInbox reads and clears the scheduler's own mailbox.
func (s *Scheduler) ReadInbox() []resource.Message {
	if s.mailbox == nil {
		return nil
	}

	return s.mailbox.ReadAndClearInbox(s.selfID)
}

// CurrentTime returns the time of the last accepted drive.
func (s *Scheduler) CurrentTime() VTimeInSec {
	return s.clock.current
}

// Clock returns a copy of the scheduler's clock state.
func (s *Scheduler) Clock() Clock {
	return s.clock
}

// ThrottleRunCount returns the number of consecutive rejected drive calls
// since the last accepted one.
func (s *Scheduler) ThrottleRunCount() int {
	return s.throttleRunCount
}

// TimerCount returns the number of pending one-shot and recurring timers.
func (s *Scheduler) TimerCount() (oneShot, recurring int) {
	return len(s.timers.oneShots), len(s.timers.recurring)
}

// EventCount returns the number of registered event handles.
func (s *Scheduler) EventCount() int {
	return len(s.events)
}

// Labels returns the labels with at least one dispatch registration, sorted.
func (s *Scheduler) Labels() []string {
	return s.dispatch.labels()
}
