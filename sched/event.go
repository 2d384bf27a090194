package sched

// An Event is a unit of behavior that the scheduler evaluates once per
// accepted drive.
type Event interface {
	// Process runs the event once. It returns true when the event has
	// finished, which removes it from the registry permanently. Returning
	// false keeps the event registered, unchanged, for the next drive.
	Process() bool
}

type conditionEvent[T any] struct {
	target    T
	condition func(T) bool
	action    func(T) bool
}

// NewConditionEvent creates an Event that couples a target with a condition
// and an action. On each drive, the condition is evaluated against the
// target; if it holds, the action runs and its return value reports whether
// the event has finished.
func NewConditionEvent[T any](
	target T,
	condition func(T) bool,
	action func(T) bool,
) Event {
	return &conditionEvent[T]{
		target:    target,
		condition: condition,
		action:    action,
	}
}

func (e *conditionEvent[T]) Process() bool {
	if !e.condition(e.target) {
		return false
	}

	return e.action(e.target)
}

// AddEventForEach registers one independent event per element of targets.
// All produced events share the same condition and action but hold distinct
// targets, and each one lives and dies on its own.
func AddEventForEach[T any](
	s *Scheduler,
	targets []T,
	condition func(T) bool,
	action func(T) bool,
) {
	for _, target := range targets {
		s.AddEvent(NewConditionEvent(target, condition, action))
	}
}
