package sched

// HookPos defines the enum of possible hooking positions.
type HookPos struct {
	Name string
}

// HookPosDriveStart triggers right after a drive call is accepted, before any
// pipeline step runs.
var HookPosDriveStart = &HookPos{Name: "DriveStart"}

// HookPosDriveComplete triggers after the last pipeline step of an accepted
// drive.
var HookPosDriveComplete = &HookPos{Name: "DriveComplete"}

// HookPosDriveThrottled triggers when a drive call is rejected by the
// throttle gate. The Detail field carries a ThrottleInfo.
var HookPosDriveThrottled = &HookPos{Name: "DriveThrottled"}

// HookPosDriveDeferred triggers when the tap classifier aborts an otherwise
// accepted drive.
var HookPosDriveDeferred = &HookPos{Name: "DriveDeferred"}

// HookPosTimerFire triggers when a one-shot or recurring timer fires. The
// Detail field carries a TimerFireInfo.
var HookPosTimerFire = &HookPos{Name: "TimerFire"}

// HookPosEventDone triggers when an event reports done and is removed from
// the registry.
var HookPosEventDone = &HookPos{Name: "EventDone"}

// HookCtx is the context that holds all the information about the site that a
// hook is triggered.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   interface{}
	Detail interface{}
}

// Hookable defines an object that accept Hooks.
type Hookable interface {
	// AcceptHook registers a hook.
	AcceptHook(hook Hook)

	// NumHooks returns the number of hooks registered.
	NumHooks() int

	// Hooks returns all the hooks registered.
	Hooks() []Hook
}

// Hook is a short piece of program that can be invoked by a hookable object.
type Hook interface {
	// Func determines what to do if hook is invoked.
	Func(ctx HookCtx)
}

// A HookableBase provides some utility function for other type that implement
// the Hookable interface.
type HookableBase struct {
	hookList []Hook
}

// NumHooks returns the number of hooks registered.
func (h *HookableBase) NumHooks() int {
	return len(h.hookList)
}

// Hooks returns all the hooks registered.
func (h *HookableBase) Hooks() []Hook {
	return h.hookList
}

// AcceptHook register a hook.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.mustNotHaveDuplicatedHook(hook)
	h.hookList = append(h.hookList, hook)
}

func (h *HookableBase) mustNotHaveDuplicatedHook(hook Hook) {
	for _, h := range h.hookList {
		if h == hook {
			panic("duplicated hook")
		}
	}
}

// InvokeHook triggers the register Hooks.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.hookList {
		hook.Func(ctx)
	}
}
