// Command rtfm runs the firmware on simulated hardware, checks a
// configuration's priority ceilings and watches a real board's serial
// heartbeat.
package main

import (
	"flag"
	"os"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"rtfm/config"
	"rtfm/core"
)

var (
	configPath string
	debug      bool

	rootCmd = &cobra.Command{
		Use:           "rtfm",
		Short:         "Priority-ceiling interrupt dispatcher tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// glog reads its settings from the standard flag set.
			flag.CommandLine.Parse(nil)
			core.SetDebugWriter(func(s string) { glog.InfoDepth(1, s) })
			core.SetDebugEnabled(debug || bool(glog.V(1)))
		},
	}
)

func init() {
	flag.Set("logtostderr", "true")
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "configuration file (.json, .yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "route dispatcher debug output to the log")

	rootCmd.AddCommand(simCmd, checkCmd, monitorCmd)
}

// loadConfig reads --config, or the defaults when it is not set.
func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return nil, err
	}
	if cfg.Debug {
		core.SetDebugEnabled(true)
	}
	return cfg, nil
}

func main() {
	defer glog.Flush()
	if err := rootCmd.Execute(); err != nil {
		glog.Error(err)
		glog.Flush()
		os.Exit(1)
	}
}
