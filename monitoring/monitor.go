// Package monitoring turns a live scheduler into a small web server so that
// the host process can be observed and probed from outside.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/driveloop/driveloop/sched"
)

// Monitor exposes the state of a Scheduler over HTTP. It observes the
// scheduler through a hook, so it never interferes with the drive pipeline.
type Monitor struct {
	scheduler   *sched.Scheduler
	portNumber  int
	openBrowser bool

	stats driveStats
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithBrowser makes StartServer open the monitor URL in the default browser.
func (m *Monitor) WithBrowser() *Monitor {
	m.openBrowser = true
	return m
}

// RegisterScheduler registers the scheduler to be monitored and installs the
// observation hook on it.
func (m *Monitor) RegisterScheduler(s *sched.Scheduler) {
	m.scheduler = s
	s.AcceptHook(&m.stats)
}

// StartServer starts the monitor as a web server with a custom port if
// wanted.
func (m *Monitor) StartServer() {
	r := mux.NewRouter()

	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/clock", m.clock)
	r.HandleFunc("/api/timers", m.timers)
	r.HandleFunc("/api/dispatch", m.dispatch)
	r.HandleFunc("/api/progress", m.progress)
	r.HandleFunc("/api/state", m.state)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	http.Handle("/", r)

	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring scheduler with %s\n", url)

	if m.openBrowser {
		_ = browser.OpenURL(url)
	}

	go func() {
		err = http.Serve(listener, nil)
		dieOnErr(err)
	}()
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprintf(w, "{\"now\":%.10f}", m.scheduler.CurrentTime())
}

type clockRsp struct {
	Origin  float64 `json:"origin"`
	Current float64 `json:"current"`
	Delta   float64 `json:"delta"`
}

func (m *Monitor) clock(w http.ResponseWriter, _ *http.Request) {
	c := m.scheduler.Clock()
	rsp := clockRsp{
		Origin:  float64(c.Origin()),
		Current: float64(c.Current()),
		Delta:   float64(c.Delta()),
	}

	writeJSON(w, rsp)
}

type timersRsp struct {
	OneShot   int `json:"one_shot"`
	Recurring int `json:"recurring"`
	Events    int `json:"events"`
}

func (m *Monitor) timers(w http.ResponseWriter, _ *http.Request) {
	oneShot, recurring := m.scheduler.TimerCount()
	rsp := timersRsp{
		OneShot:   oneShot,
		Recurring: recurring,
		Events:    m.scheduler.EventCount(),
	}

	writeJSON(w, rsp)
}

func (m *Monitor) dispatch(w http.ResponseWriter, _ *http.Request) {
	labels := m.scheduler.Labels()
	if labels == nil {
		labels = []string{}
	}

	writeJSON(w, labels)
}

func (m *Monitor) progress(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, m.stats.snapshot())
}

func (m *Monitor) state(w http.ResponseWriter, _ *http.Request) {
	serializer := goseth.NewSerializer()
	serializer.SetRoot(m.scheduler)
	serializer.SetMaxDepth(2)

	err := serializer.Serialize(w)
	dieOnErr(err)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	rsp := resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	}

	writeJSON(w, rsp)
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
