package sched

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/driveloop/driveloop/resource"
)

type captureHook struct {
	ctxs []HookCtx
}

func (h *captureHook) Func(ctx HookCtx) {
	h.ctxs = append(h.ctxs, ctx)
}

func (h *captureHook) at(pos *HookPos) []HookCtx {
	var out []HookCtx
	for _, ctx := range h.ctxs {
		if ctx.Pos == pos {
			out = append(out, ctx)
		}
	}
	return out
}

var _ = Describe("Scheduler", func() {
	var (
		mockCtrl  *gomock.Controller
		clock     *MockClockSource
		scheduler *Scheduler
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		clock = NewMockClockSource(mockCtrl)
		scheduler = NewScheduler(clock)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should accept the first drive unconditionally", func() {
		clock.EXPECT().Now().Return(VTimeInSec(5.0))

		scheduler.Drive(1000, "")

		Expect(scheduler.CurrentTime()).To(BeNumerically("==", 5.0))
	})

	It("should reject a drive inside the minimum interval "+
		"without touching any store", func() {
		fired := false
		dispatched := false
		scheduler.OnLabel("x", func() { dispatched = true })

		clock.EXPECT().Now().Return(VTimeInSec(0.0))
		scheduler.Drive(1000, "")

		scheduler.After(100, func() { fired = true })

		clock.EXPECT().Now().Return(VTimeInSec(200.0))
		scheduler.Drive(1000, "x")

		Expect(fired).To(BeFalse())
		Expect(dispatched).To(BeFalse())
		Expect(scheduler.CurrentTime()).To(BeNumerically("==", 0.0))
		Expect(scheduler.ThrottleRunCount()).To(Equal(1))
	})

	It("should report the throttled fraction and classify taps", func() {
		classifier := NewMockTapClassifier(mockCtrl)
		scheduler.WithTapClassifier(classifier)

		hook := &captureHook{}
		scheduler.AcceptHook(hook)

		clock.EXPECT().Now().Return(VTimeInSec(0.0))
		scheduler.Drive(1000, "")

		clock.EXPECT().Now().Return(VTimeInSec(200.0))
		scheduler.Drive(1000, "")

		classifier.EXPECT().SingleTap().Return(Proceed)
		clock.EXPECT().Now().Return(VTimeInSec(1200.0))
		scheduler.Drive(1000, "")

		clock.EXPECT().Now().Return(VTimeInSec(1300.0))
		scheduler.Drive(1000, "")

		Expect(scheduler.CurrentTime()).To(BeNumerically("==", 1200.0))

		throttled := hook.at(HookPosDriveThrottled)
		Expect(throttled).To(HaveLen(2))
		Expect(throttled[0].Detail.(ThrottleInfo).Fraction).
			To(BeNumerically("~", 0.2, 1e-12))
		Expect(throttled[1].Detail.(ThrottleInfo).Fraction).
			To(BeNumerically("~", 0.1, 1e-12))
		Expect(throttled[1].Detail.(ThrottleInfo).RunCount).To(Equal(1))
	})

	It("should classify two or more coalesced calls as a double tap", func() {
		classifier := NewMockTapClassifier(mockCtrl)
		scheduler.WithTapClassifier(classifier)

		clock.EXPECT().Now().Return(VTimeInSec(0.0))
		scheduler.Drive(1.0, "")

		clock.EXPECT().Now().Return(VTimeInSec(0.2))
		scheduler.Drive(1.0, "")

		clock.EXPECT().Now().Return(VTimeInSec(0.4))
		scheduler.Drive(1.0, "")

		classifier.EXPECT().DoubleTap().Return(Proceed)
		clock.EXPECT().Now().Return(VTimeInSec(1.5))
		scheduler.Drive(1.0, "")

		Expect(scheduler.CurrentTime()).To(BeNumerically("==", 1.5))
		Expect(scheduler.ThrottleRunCount()).To(Equal(0))
	})

	It("should abort the drive and keep state when the classifier defers",
		func() {
			classifier := NewMockTapClassifier(mockCtrl)
			scheduler.WithTapClassifier(classifier)

			ran := false
			scheduler.AddEvent(NewConditionEvent(&ran,
				func(*bool) bool { return true },
				func(r *bool) bool { *r = true; return true }))

			clock.EXPECT().Now().Return(VTimeInSec(0.0))
			scheduler.Drive(1.0, "")
			Expect(ran).To(BeTrue())

			ran = false
			scheduler.AddEvent(NewConditionEvent(&ran,
				func(*bool) bool { return true },
				func(r *bool) bool { *r = true; return true }))

			clock.EXPECT().Now().Return(VTimeInSec(0.5))
			scheduler.Drive(1.0, "")

			classifier.EXPECT().SingleTap().Return(Defer)
			clock.EXPECT().Now().Return(VTimeInSec(2.0))
			scheduler.Drive(1.0, "")

			Expect(ran).To(BeFalse())
			Expect(scheduler.CurrentTime()).To(BeNumerically("==", 0.0))
			Expect(scheduler.ThrottleRunCount()).To(Equal(1))

			// The retry sees the same classification.
			classifier.EXPECT().SingleTap().Return(Proceed)
			clock.EXPECT().Now().Return(VTimeInSec(2.5))
			scheduler.Drive(1.0, "")

			Expect(ran).To(BeTrue())
			Expect(scheduler.CurrentTime()).To(BeNumerically("==", 2.5))
		})

	It("should run dispatch callbacks in registration order", func() {
		var order []string
		scheduler.OnLabel("X", func() { order = append(order, "a") })
		scheduler.OnLabel("X", func() { order = append(order, "b") })

		clock.EXPECT().Now().Return(VTimeInSec(0.0))
		scheduler.Drive(1.0, "X")

		clock.EXPECT().Now().Return(VTimeInSec(2.0))
		scheduler.Drive(1.0, "X")

		Expect(order).To(Equal([]string{"a", "b", "a", "b"}))
	})

	It("should ignore unknown labels", func() {
		clock.EXPECT().Now().Return(VTimeInSec(0.0))

		Expect(func() {
			scheduler.Drive(1.0, "nobody-registered-this")
		}).NotTo(Panic())
	})

	It("should run the pipeline steps in a fixed order", func() {
		var order []string

		scheduler.OnLabel("X", func() { order = append(order, "dispatch") })
		scheduler.AddEvent(NewConditionEvent(&order,
			func(*[]string) bool { return true },
			func(o *[]string) bool {
				*o = append(*o, "event")
				return true
			}))
		scheduler.Every(1.0, func() { order = append(order, "recurring") })
		scheduler.After(1.0, func() { order = append(order, "one-shot") })

		hook := &captureHook{}
		scheduler.AcceptHook(hook)

		clock.EXPECT().Now().Return(VTimeInSec(1.5))
		scheduler.Drive(0, "X")

		Expect(order).To(Equal(
			[]string{"dispatch", "event", "recurring", "one-shot"}))
		Expect(hook.at(HookPosDriveStart)).To(HaveLen(1))
		Expect(hook.at(HookPosDriveComplete)).To(HaveLen(1))
	})

	It("should compute one-shot fire times against the post-reset origin",
		func() {
			clock.EXPECT().Now().Return(VTimeInSec(5.0))
			scheduler.Drive(0, "")

			scheduler.Reset()

			fired := false
			scheduler.After(1.0, func() { fired = true })

			clock.EXPECT().Now().Return(VTimeInSec(5.5))
			scheduler.Drive(0, "")
			Expect(fired).To(BeFalse())

			clock.EXPECT().Now().Return(VTimeInSec(6.2))
			scheduler.Drive(0, "")
			Expect(fired).To(BeTrue())
		})

	It("should clear the inbox and refresh the resource cache on reset",
		func() {
			registry := resource.NewMemRegistry()
			registry.Add(resource.Resource{Name: "display", Kind: "output"})
			mailbox := resource.NewMailbox(registry)
			scheduler.
				WithResourceRegistry(registry).
				WithMailbox(mailbox, "self")

			mailbox.Post("self", mailbox.ComposeMessage("hello", "world"))

			scheduler.Reset()

			Expect(scheduler.ReadInbox()).To(BeEmpty())

			names := []string{}
			for _, r := range scheduler.Resources() {
				names = append(names, r.Name)
			}
			Expect(names).To(ContainElement("display"))
		})
})
