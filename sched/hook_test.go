package sched

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("HookableBase", func() {
	var hookable *HookableBase

	BeforeEach(func() {
		hookable = &HookableBase{}
	})

	It("should invoke hooks in registration order", func() {
		first := &captureHook{}
		second := &captureHook{}

		hookable.AcceptHook(first)
		hookable.AcceptHook(second)

		Expect(hookable.NumHooks()).To(Equal(2))
		Expect(hookable.Hooks()).To(Equal([]Hook{first, second}))

		hookable.InvokeHook(HookCtx{Pos: HookPosDriveStart})

		Expect(first.ctxs).To(HaveLen(1))
		Expect(second.ctxs).To(HaveLen(1))
	})

	It("should panic on a duplicated hook", func() {
		hook := &captureHook{}
		hookable.AcceptHook(hook)

		Expect(func() { hookable.AcceptHook(hook) }).To(Panic())
	})
})
