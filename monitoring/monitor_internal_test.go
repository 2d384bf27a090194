package monitoring

import (
	"encoding/json"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/driveloop/driveloop/sched"
)

type stubClock struct {
	now sched.VTimeInSec
}

func (c *stubClock) Now() sched.VTimeInSec {
	return c.now
}

var _ = Describe("Monitor", func() {
	var (
		clock     *stubClock
		scheduler *sched.Scheduler
		monitor   *Monitor
	)

	BeforeEach(func() {
		clock = &stubClock{}
		scheduler = sched.NewScheduler(clock)

		monitor = NewMonitor()
		monitor.RegisterScheduler(scheduler)
	})

	It("should report the current time", func() {
		clock.now = 1.5
		scheduler.Drive(0, "")

		w := httptest.NewRecorder()
		monitor.now(w, httptest.NewRequest("GET", "/api/now", nil))

		Expect(w.Body.String()).To(Equal("{\"now\":1.5000000000}"))
	})

	It("should report the clock state", func() {
		clock.now = 2.0
		scheduler.Drive(0, "")

		w := httptest.NewRecorder()
		monitor.clock(w, httptest.NewRequest("GET", "/api/clock", nil))

		rsp := clockRsp{}
		Expect(json.Unmarshal(w.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp.Current).To(BeNumerically("==", 2.0))
		Expect(rsp.Delta).To(BeNumerically("==", 2.0))
	})

	It("should report timer and event counts", func() {
		scheduler.After(10, func() {})
		scheduler.Every(5, func() {})

		w := httptest.NewRecorder()
		monitor.timers(w, httptest.NewRequest("GET", "/api/timers", nil))

		rsp := timersRsp{}
		Expect(json.Unmarshal(w.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp.OneShot).To(Equal(1))
		Expect(rsp.Recurring).To(Equal(1))
		Expect(rsp.Events).To(Equal(0))
	})

	It("should report the registered dispatch labels", func() {
		scheduler.OnLabel("b", func() {})
		scheduler.OnLabel("a", func() {})

		w := httptest.NewRecorder()
		monitor.dispatch(w, httptest.NewRequest("GET", "/api/dispatch", nil))

		labels := []string{}
		Expect(json.Unmarshal(w.Body.Bytes(), &labels)).To(Succeed())
		Expect(labels).To(Equal([]string{"a", "b"}))
	})

	It("should accumulate drive statistics through the hook", func() {
		clock.now = 0
		scheduler.Drive(1.0, "")

		clock.now = 0.25
		scheduler.Drive(1.0, "")

		clock.now = 1.5
		scheduler.Drive(1.0, "")

		w := httptest.NewRecorder()
		monitor.progress(w, httptest.NewRequest("GET", "/api/progress", nil))

		rsp := DriveStatsSnapshot{}
		Expect(json.Unmarshal(w.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp.Accepted).To(Equal(uint64(2)))
		Expect(rsp.Throttled).To(Equal(uint64(1)))
		Expect(rsp.LastFraction).To(BeNumerically("~", 0.25, 1e-12))
		Expect(rsp.LastRunCount).To(Equal(1))
	})
})
