package datarecording

import (
	"os"
	"strings"
	"time"

	"github.com/driveloop/driveloop/sched"
)

// DriveEntry is one accepted drive call.
type DriveEntry struct {
	Time  float64
	Delta float64
	Label string
}

// ThrottleEntry is one rejected drive call.
type ThrottleEntry struct {
	Time     float64
	Fraction float64
	RunCount int
}

// TimerFireEntry is one timer fire.
type TimerFireEntry struct {
	Time    float64
	TimerID string
	Kind    string
	Due     float64
}

// RunEntry describes the recorded host session.
type RunEntry struct {
	Property string
	Value    string
}

// A DriveRecorder is a hook that records scheduler activity into a
// DataRecorder. Install it with scheduler.AcceptHook.
type DriveRecorder struct {
	recorder DataRecorder
}

// NewDriveRecorder creates a DriveRecorder on the given backend and creates
// the tables it writes to.
func NewDriveRecorder(recorder DataRecorder) *DriveRecorder {
	r := &DriveRecorder{recorder: recorder}

	recorder.CreateTable("drives", DriveEntry{})
	recorder.CreateTable("throttles", ThrottleEntry{})
	recorder.CreateTable("timer_fires", TimerFireEntry{})
	recorder.CreateTable("run_info", RunEntry{})

	r.recordRunInfo()

	return r
}

func (r *DriveRecorder) recordRunInfo() {
	startTime := time.Now().Format("2006-01-02 15:04:05.000000000")
	r.recorder.InsertData("run_info",
		RunEntry{Property: "Start Time", Value: startTime})
	r.recorder.InsertData("run_info",
		RunEntry{Property: "Command", Value: strings.Join(os.Args, " ")})
}

// Func records the hook invocation.
func (r *DriveRecorder) Func(ctx sched.HookCtx) {
	teller, ok := ctx.Domain.(sched.TimeTeller)
	if !ok {
		return
	}
	now := float64(teller.CurrentTime())

	switch ctx.Pos {
	case sched.HookPosDriveComplete:
		scheduler, ok := ctx.Domain.(interface{ Clock() sched.Clock })
		if !ok {
			return
		}

		r.recorder.InsertData("drives", DriveEntry{
			Time:  now,
			Delta: float64(scheduler.Clock().Delta()),
			Label: ctx.Item.(string),
		})
	case sched.HookPosDriveThrottled:
		info := ctx.Detail.(sched.ThrottleInfo)
		r.recorder.InsertData("throttles", ThrottleEntry{
			Time:     now,
			Fraction: info.Fraction,
			RunCount: info.RunCount,
		})
	case sched.HookPosTimerFire:
		info := ctx.Detail.(sched.TimerFireInfo)
		r.recorder.InsertData("timer_fires", TimerFireEntry{
			Time:    now,
			TimerID: info.ID,
			Kind:    info.Kind,
			Due:     float64(info.Due),
		})
	}
}
