package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"rtfm/core"
	"rtfm/firmware"
	"rtfm/host/monitor"
	"rtfm/sim"
)

var (
	simOpts = struct {
		program    string
		ticks      int
		period     time.Duration
		echo       bool
		faultEvery int
		input      string
		trace      bool
	}{}

	simCmd = &cobra.Command{
		Use:   "sim",
		Short: "Run the firmware on simulated hardware",
		Long: "Run the blinky or serial program on a virtual SAMD21: LEDs, TC3, " +
			"SERCOM0 and a software NVIC. The transmitted stream is checked by the " +
			"heartbeat monitor.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSim(cmd, cmd.OutOrStdout())
		},
	}
)

func init() {
	f := simCmd.Flags()
	f.StringVarP(&simOpts.program, "program", "p", "", "program to run: blinky or serial")
	f.IntVarP(&simOpts.ticks, "ticks", "n", 8, "stop after this many timer periods (0 runs until interrupted)")
	f.DurationVar(&simOpts.period, "period", 0, "wall-clock timer period (default from the configured rate)")
	f.BoolVar(&simOpts.echo, "echo", false, "echo received bytes")
	f.IntVar(&simOpts.faultEvery, "fault-every", 0, "fail every n-th UART write")
	f.StringVar(&simOpts.input, "input", "", "file fed to the UART receive line, - for stdin")
	f.BoolVar(&simOpts.trace, "trace", false, "record dispatcher events and dump the trace ring when done")
}

func runSim(cmd *cobra.Command, out io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("program") {
		cfg.Program = simOpts.program
	}
	if flags.Changed("echo") {
		cfg.Echo = simOpts.echo
	}
	opts, err := cfg.Firmware()
	if err != nil {
		return err
	}

	m := sim.NewMachine(core.Priority(cfg.Levels))
	if simOpts.faultEvery > 0 {
		m.UART.Fault = sim.FailEvery(simOpts.faultEvery)
	}
	mon := monitor.New(cfg.Message)
	m.UART.OnTransmit = func(b byte) { mon.Write([]byte{b}) }

	opts.Publish = func(s firmware.Snapshot) {
		switch opts.Program {
		case firmware.Blinky:
			glog.Infof("mode %s", s.Mode)
		default:
			glog.Infof("periods=%d failed=%d sent=%d received=%d", s.Tx.Periods, s.Tx.Failed, s.Tx.Sent, s.Rx.Received)
		}
	}

	fw, err := m.Init(opts)
	if err != nil {
		return fmt.Errorf("initialize %s: %w", cfg.Program, err)
	}

	var input io.Reader
	switch simOpts.input {
	case "":
	case "-":
		input = os.Stdin
	default:
		f, err := os.Open(simOpts.input)
		if err != nil {
			return err
		}
		defer f.Close()
		input = f
	}

	core.ClearTrace()
	core.SetTraceEnabled(simOpts.trace)
	defer core.SetTraceEnabled(true)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	glog.Infof("running %s at %d Hz, %d baud", cfg.Program, opts.TimerHz, opts.Baud)
	err = m.Run(ctx, fw, sim.RunOptions{
		Period: simOpts.period,
		Ticks:  simOpts.ticks,
		Input:  input,
	})
	if err != nil {
		return err
	}

	printSummary(out, fw, mon.Stats(), m)
	if simOpts.trace {
		core.DumpTrace()
	}
	return nil
}

func printSummary(out io.Writer, fw *firmware.Firmware, hb monitor.Stats, m *sim.Machine) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TASK\tSOURCE\tPRIORITY\tINVOCATIONS\tFORCED RELEASES")
	for _, t := range fw.App.Tasks().All() {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n", t.Name(), t.Source(), t.Priority(), t.Invocations(), t.ForcedReleases())
	}
	if idle := fw.App.IdleTask(); idle != nil {
		fmt.Fprintf(tw, "%s\t-\t%d\t%d\t%d\n", idle.Name(), idle.Priority(), idle.Invocations(), idle.ForcedReleases())
	}
	tw.Flush()

	snap := fw.Snapshot()
	switch fw.Program {
	case firmware.Blinky:
		fmt.Fprintf(out, "mode: %s\n", snap.Mode)
	default:
		fmt.Fprintf(out, "periods: %d failed: %d bytes sent: %d received: %d echoed: %d\n",
			snap.Tx.Periods, snap.Tx.Failed, snap.Tx.Sent, snap.Rx.Received, snap.Rx.Echoed)
		fmt.Fprintf(out, "heartbeats: %d garbled bytes: %d\n", hb.Greetings, hb.Garbled)
	}
	fmt.Fprintf(out, "timer overruns: %d, rx dropped: %d, max nesting: %d\n",
		m.Timer.Overruns(), m.UART.Dropped(), m.NVIC.MaxNesting())
}
