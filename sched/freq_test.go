package sched

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Freq", func() {
	It("should get period", func() {
		var f = 1 * KHz
		Expect(f.Period()).To(BeNumerically("==", 1e-3))
	})

	It("should panic on zero frequency", func() {
		var f Freq
		Expect(func() { f.Period() }).To(Panic())
	})

	It("should count cycles", func() {
		var f = 60 * Hz
		Expect(f.Cycle(1)).To(Equal(uint64(60)))
	})

	It("should get this tick", func() {
		var f = 1 * Hz
		Expect(f.ThisTick(1)).To(BeNumerically("~", 1, 1e-12))
	})

	It("should get the next tick", func() {
		var f = 1 * KHz
		Expect(f.NextTick(0.0615)).To(BeNumerically("~", 0.062, 1e-12))
	})

	It("should get the next tick, if the time is on a boundary", func() {
		var f = 1 * KHz
		Expect(f.NextTick(0.061)).To(BeNumerically("~", 0.062, 1e-12))
	})
})
