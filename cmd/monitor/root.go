package main

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"vitals-monitor/internal/infra"
)

func newRootCommand() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "vitals-monitor",
		Short:         "Simulated vital-signs monitor with glucose and crustrol channels",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return infra.LoadDotEnv(envFile)
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	root.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(newServeCommand(), newRunCommand(), newStatusCommand(), newMigrateCommand())
	return root
}

// flagOverrides holds the command-line values that take precedence over the
// environment. Nil pointers and empty strings leave the environment value.
type flagOverrides struct {
	LogLevel    string
	HTTPPort    string
	GRPCPort    string
	MetricsPort string
	WarmUp      *time.Duration
	Tick        *time.Duration
	Cap         *int
	Policy      *string
	Seed        *int64
}

func (o flagOverrides) apply(cfg *infra.Config) {
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	if o.HTTPPort != "" {
		cfg.HTTPPort = o.HTTPPort
	}
	if o.GRPCPort != "" {
		cfg.GRPCPort = o.GRPCPort
	}
	if o.MetricsPort != "" {
		cfg.MetricsPort = o.MetricsPort
	}
	if o.WarmUp != nil {
		cfg.WarmUpMillis = durationMillis(*o.WarmUp)
	}
	if o.Tick != nil {
		cfg.TickMillis = durationMillis(*o.Tick)
	}
	if o.Cap != nil {
		cfg.SampleCap = *o.Cap
	}
	if o.Policy != nil {
		cfg.Policy = *o.Policy
	}
	if o.Seed != nil {
		cfg.RandSeed = *o.Seed
	}
}

// durationMillis rounds sub-millisecond durations up so that a positive flag
// never turns into the zero value that selects the default.
func durationMillis(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	ms := int(d / time.Millisecond)
	if ms == 0 {
		ms = 1
	}
	return ms
}

// addSessionFlags registers the flags shared by commands that run sessions.
func addSessionFlags(flags *pflag.FlagSet) {
	flags.Duration("warmup", 0, "delay before the first reading (overrides WARMUP_MS)")
	flags.Duration("tick", 0, "period between readings (overrides TICK_MS)")
	flags.Int("cap", 0, "number of ticks per session (overrides SAMPLE_CAP)")
	flags.String("policy", "", "accumulation policy: all or out-of-range (overrides POLICY)")
	flags.Int64("seed", 0, "generator seed, 0 for a random one (overrides RAND_SEED)")
}

// collectOverrides reads the flags the user actually set.
func collectOverrides(cmd *cobra.Command) (flagOverrides, error) {
	var (
		o   flagOverrides
		err error
	)
	flags := cmd.Flags()

	if o.LogLevel, err = flags.GetString("log-level"); err != nil {
		return o, err
	}
	for name, dst := range map[string]*string{"http-port": &o.HTTPPort, "grpc-port": &o.GRPCPort, "metrics-port": &o.MetricsPort} {
		if flags.Lookup(name) == nil || !flags.Changed(name) {
			continue
		}
		if *dst, err = flags.GetString(name); err != nil {
			return o, err
		}
	}

	if flags.Changed("warmup") {
		v, err := flags.GetDuration("warmup")
		if err != nil {
			return o, err
		}
		o.WarmUp = &v
	}
	if flags.Changed("tick") {
		v, err := flags.GetDuration("tick")
		if err != nil {
			return o, err
		}
		o.Tick = &v
	}
	if flags.Changed("cap") {
		v, err := flags.GetInt("cap")
		if err != nil {
			return o, err
		}
		o.Cap = &v
	}
	if flags.Changed("policy") {
		v, err := flags.GetString("policy")
		if err != nil {
			return o, err
		}
		o.Policy = &v
	}
	if flags.Changed("seed") {
		v, err := flags.GetInt64("seed")
		if err != nil {
			return o, err
		}
		o.Seed = &v
	}
	return o, nil
}
