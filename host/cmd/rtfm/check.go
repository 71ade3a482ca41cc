package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"rtfm/core"
	"rtfm/firmware"
	"rtfm/sim"
)

var (
	checkYAML bool

	checkCmd = &cobra.Command{
		Use:   "check",
		Short: "Verify a configuration and print its resource ceilings",
		Long: "Build the configured program without running it. Fails when a task " +
			"priority exceeds the ceiling of a resource it uses, or when any other " +
			"configuration error is found.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.OutOrStdout())
		},
	}
)

func init() {
	checkCmd.Flags().BoolVar(&checkYAML, "yaml", false, "print the report as YAML")
}

// ceilingRow is one resource in the check report.
type ceilingRow struct {
	Resource string   `yaml:"resource"`
	Ceiling  uint8    `yaml:"ceiling"`
	Required uint8    `yaml:"required"`
	Users    []string `yaml:"users"`
}

type checkReport struct {
	Program   string       `yaml:"program"`
	Resources []ceilingRow `yaml:"resources"`
}

func runCheck(out io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts, err := cfg.Firmware()
	if err != nil {
		return err
	}
	fw, err := buildOnly(core.Priority(cfg.Levels), opts)
	if err != nil {
		return fmt.Errorf("%s rejected:\n%w", cfg.Program, err)
	}

	report := checkReport{Program: cfg.Program}
	for _, r := range fw.App.Report() {
		report.Resources = append(report.Resources, ceilingRow{
			Resource: r.Resource,
			Ceiling:  uint8(r.Ceiling),
			Required: uint8(r.Required),
			Users:    r.Users,
		})
	}

	if checkYAML {
		enc := yaml.NewEncoder(out)
		defer enc.Close()
		return enc.Encode(report)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RESOURCE\tCEILING\tREQUIRED\tUSERS")
	for _, r := range report.Resources {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", r.Resource, r.Ceiling, r.Required, strings.Join(r.Users, ","))
	}
	tw.Flush()
	fmt.Fprintf(out, "%s: ok\n", cfg.Program)
	return nil
}

// buildOnly runs the initialization phase against virtual peripherals.
func buildOnly(levels core.Priority, opts firmware.Options) (*firmware.Firmware, error) {
	return sim.NewMachine(levels).Init(opts)
}
