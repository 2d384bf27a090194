package sched

import "log"

// DriveLogger is a hook that prints drive activity.
type DriveLogger struct {
	LogHookBase
}

// NewDriveLogger returns a DriveLogger which will write into the logger.
func NewDriveLogger(logger *log.Logger) *DriveLogger {
	h := new(DriveLogger)
	h.Logger = logger
	return h
}

// Func writes the drive information into the logger.
func (h *DriveLogger) Func(ctx HookCtx) {
	teller, ok := ctx.Domain.(TimeTeller)
	if !ok {
		return
	}
	now := teller.CurrentTime()

	switch ctx.Pos {
	case HookPosDriveStart:
		h.Printf("%.10f, drive, label %q", now, ctx.Item)
	case HookPosDriveThrottled:
		info := ctx.Detail.(ThrottleInfo)
		h.Printf("%.10f, throttled, fraction %.3f, run count %d",
			now, info.Fraction, info.RunCount)
	case HookPosDriveDeferred:
		h.Printf("%.10f, deferred, label %q", now, ctx.Item)
	case HookPosTimerFire:
		info := ctx.Detail.(TimerFireInfo)
		h.Printf("%.10f, %s timer %s fires, due %.10f",
			now, info.Kind, info.ID, info.Due)
	}
}
