package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/driveloop/driveloop/datarecording"
	"github.com/driveloop/driveloop/monitoring"
	"github.com/driveloop/driveloop/resource"
	"github.com/driveloop/driveloop/sched"
	"github.com/driveloop/driveloop/sched/id"
)

var runFlags = struct {
	hostFreq    float64
	minInterval float64
	duration    float64
	monitorPort int
	openBrowser bool
	recordPath  string
	verbose     bool
}{}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the demo scheduler host",
	Run: func(_ *cobra.Command, _ []string) {
		run()
	},
}

func init() {
	runCmd.Flags().Float64Var(&runFlags.hostFreq, "host-freq", 60,
		"rate of the host loop, in drive calls per second")
	runCmd.Flags().Float64Var(&runFlags.minInterval, "min-interval", 0.1,
		"shortest accepted spacing between two ticks, in seconds")
	runCmd.Flags().Float64Var(&runFlags.duration, "duration", 10,
		"how long to run, in seconds; 0 runs until interrupted")
	runCmd.Flags().IntVar(&runFlags.monitorPort, "monitor-port", 0,
		"start a monitoring server on this port; 0 disables it")
	runCmd.Flags().BoolVar(&runFlags.openBrowser, "browser", false,
		"open the monitoring server in the default browser")
	runCmd.Flags().StringVar(&runFlags.recordPath, "record", "",
		"record a drive trace into this SQLite file")
	runCmd.Flags().BoolVar(&runFlags.verbose, "verbose", false,
		"log every drive")

	rootCmd.AddCommand(runCmd)
}

// wallClock samples monotonic wall-clock time since the host started.
type wallClock struct {
	start time.Time
}

func (c wallClock) Now() sched.VTimeInSec {
	return sched.VTimeInSec(time.Since(c.start).Seconds())
}

func run() {
	loadEnv()

	registry := resource.NewMemRegistry()
	registry.Add(resource.Resource{Name: "host/loop", Kind: "driver"})
	mailbox := resource.NewMailbox(registry)

	scheduler := sched.NewScheduler(wallClock{start: time.Now()}).
		WithIDGenerator(id.NewXIDGenerator()).
		WithResourceRegistry(registry).
		WithMailbox(mailbox, "driveloop")
	scheduler.Reset()

	if runFlags.verbose {
		logger := log.New(os.Stderr, "", 0)
		scheduler.AcceptHook(sched.NewDriveLogger(logger))
	}

	if runFlags.monitorPort > 0 {
		monitor := monitoring.NewMonitor().
			WithPortNumber(runFlags.monitorPort)
		if runFlags.openBrowser {
			monitor = monitor.WithBrowser()
		}
		monitor.RegisterScheduler(scheduler)
		monitor.StartServer()
	}

	if runFlags.recordPath != "" {
		recorder := datarecording.New(runFlags.recordPath)
		scheduler.AcceptHook(datarecording.NewDriveRecorder(recorder))
	}

	registerDemoWork(scheduler, mailbox)

	hostLoop(scheduler)

	atexit.Exit(0)
}

// loadEnv reads the optional .env file. Flags that were not set on the
// command line pick up their values from the environment.
func loadEnv() {
	_ = godotenv.Load()

	if v := os.Getenv("DRIVELOOP_MONITOR_PORT"); v != "" &&
		runFlags.monitorPort == 0 {
		port, err := strconv.Atoi(v)
		if err != nil {
			log.Fatalf("invalid DRIVELOOP_MONITOR_PORT: %s", v)
		}
		runFlags.monitorPort = port
	}

	if v := os.Getenv("DRIVELOOP_RECORD"); v != "" &&
		runFlags.recordPath == "" {
		runFlags.recordPath = v
	}
}

func registerDemoWork(scheduler *sched.Scheduler, mailbox *resource.Mailbox) {
	scheduler.Every(1, func() {
		fmt.Printf("%.3f heartbeat\n", scheduler.CurrentTime())
	})

	scheduler.After(2, func() {
		mailbox.Post("driveloop", mailbox.ComposeMessage(
			"greeting", "two seconds in"))
	})

	scheduler.Every(3, func() {
		for _, msg := range scheduler.ReadInbox() {
			fmt.Printf("%.3f mail: %s: %s\n",
				scheduler.CurrentTime(), msg.Subject, msg.Body)
		}
	})

	scheduler.OnLabel("interrupt", func() {
		fmt.Printf("%.3f interrupted\n", scheduler.CurrentTime())
	})
}

func hostLoop(scheduler *sched.Scheduler) {
	interrupted := make(chan os.Signal, 1)
	signal.Notify(interrupted, os.Interrupt)

	hostFreq := sched.Freq(runFlags.hostFreq) * sched.Hz
	ticker := time.NewTicker(
		time.Duration(float64(hostFreq.Period()) * float64(time.Second)))
	defer ticker.Stop()

	var deadline <-chan time.Time
	if runFlags.duration > 0 {
		deadline = time.After(
			time.Duration(runFlags.duration * float64(time.Second)))
	}

	for {
		select {
		case <-ticker.C:
			scheduler.Drive(sched.VTimeInSec(runFlags.minInterval), "")
		case <-interrupted:
			scheduler.Drive(sched.VTimeInSec(runFlags.minInterval), "interrupt")
			return
		case <-deadline:
			return
		}
	}
}
