package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"rtfm/host/monitor"
	"rtfm/host/serial"
)

var (
	monitorOpts = struct {
		device   string
		baud     int
		duration time.Duration
	}{}

	monitorCmd = &cobra.Command{
		Use:   "monitor",
		Short: "Watch the serial heartbeat of a running board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMonitor(cmd)
		},
	}
)

func init() {
	f := monitorCmd.Flags()
	f.StringVarP(&monitorOpts.device, "device", "d", "/dev/ttyACM0", "serial device path")
	f.IntVarP(&monitorOpts.baud, "baud", "b", 0, "baud rate (default from the configuration)")
	f.DurationVar(&monitorOpts.duration, "duration", 0, "stop after this long (0 runs until interrupted)")
}

func runMonitor(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	pcfg := serial.DefaultConfig(monitorOpts.device)
	pcfg.Baud = int(cfg.Baud)
	if monitorOpts.baud > 0 {
		pcfg.Baud = monitorOpts.baud
	}
	port, err := serial.Open(pcfg)
	if err != nil {
		return err
	}
	defer port.Close()
	glog.Infof("watching %s at %d baud", port.Device(), pcfg.Baud)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if monitorOpts.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, monitorOpts.duration)
		defer cancel()
	}

	mon := monitor.New(cfg.Message)
	mon.Follow = true
	period := time.Second / time.Duration(cfg.TimerHz)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return mon.Run(gctx, port)
	})
	g.Go(func() error {
		ticker := time.NewTicker(2 * period)
		defer ticker.Stop()
		healthy := true
		for {
			select {
			case <-gctx.Done():
				return nil
			case now := <-ticker.C:
				ok := mon.Healthy(now, period)
				if ok != healthy {
					if ok {
						glog.Info("heartbeat restored")
					} else {
						glog.Warningf("no heartbeat on %s for %v", port.Device(), 2*period)
					}
					healthy = ok
				}
			}
		}
	})
	if err := g.Wait(); err != nil {
		return err
	}

	st := mon.Stats()
	fmt.Fprintf(cmd.OutOrStdout(), "bytes: %d heartbeats: %d garbled: %d\n", st.Bytes, st.Greetings, st.Garbled)
	return nil
}
