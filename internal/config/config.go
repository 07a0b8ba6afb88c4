package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Bench    BenchConfig  `mapstructure:"bench"`
	Output   OutputConfig `mapstructure:"output"`
	LogLevel string       `mapstructure:"log_level"`
}

type BenchConfig struct {
	Elements  uint64  `mapstructure:"elements"`
	Threads   int     `mapstructure:"threads"`
	Alpha     float64 `mapstructure:"alpha"`
	Alloc     string  `mapstructure:"alloc"`
	Precision string  `mapstructure:"precision"`
	Runs      int     `mapstructure:"runs"`
	Warmup    int     `mapstructure:"warmup"`
	Verify    bool    `mapstructure:"verify"`
}

type OutputConfig struct {
	Format string `mapstructure:"format"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

// flagKeys maps each registered flag to its config key.
var flagKeys = map[string]string{
	"bench-elements":  "bench.elements",
	"bench-threads":   "bench.threads",
	"bench-alpha":     "bench.alpha",
	"bench-alloc":     "bench.alloc",
	"bench-precision": "bench.precision",
	"bench-runs":      "bench.runs",
	"bench-warmup":    "bench.warmup",
	"bench-verify":    "bench.verify",
	"format":          "output.format",
	"log-level":       "log_level",
}

func DefaultConfig() Config {
	return Config{
		Bench: BenchConfig{
			Elements:  10_000_000,
			Threads:   4,
			Alpha:     2.0,
			Alloc:     AllocHeap,
			Precision: PrecisionF32,
			Runs:      1,
			Warmup:    0,
			Verify:    false,
		},
		Output: OutputConfig{
			Format: FormatLine,
		},
		LogLevel: "info",
	}
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.Uint64("bench-elements", defaults.Bench.Elements, "Vector length N (overridden by the first positional argument)")
	fs.Int("bench-threads", defaults.Bench.Threads, "Worker count T (overridden by the second positional argument)")
	fs.Float64("bench-alpha", defaults.Bench.Alpha, "Scale factor a in y = a*x + y")
	fs.String("bench-alloc", defaults.Bench.Alloc, "Buffer allocator: heap|mmap")
	fs.String("bench-precision", defaults.Bench.Precision, "Element type: f32|f64")
	fs.Int("bench-runs", defaults.Bench.Runs, "Number of timed passes")
	fs.Int("bench-warmup", defaults.Bench.Warmup, "Number of untimed warmup passes")
	fs.Bool("bench-verify", defaults.Bench.Verify, "Check every element against a*x+1 after the run")
	fs.String("format", defaults.Output.Format, "Output format: line|table|json")
	fs.String("log-level", defaults.LogLevel, "Log level: debug|info|warn|error")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, err
		}
	}

	v.SetEnvPrefix("DAXPY")
	replacer := strings.NewReplacer("-", "_", ".", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("daxpy")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("bench.elements", c.Bench.Elements)
	v.SetDefault("bench.threads", c.Bench.Threads)
	v.SetDefault("bench.alpha", c.Bench.Alpha)
	v.SetDefault("bench.alloc", c.Bench.Alloc)
	v.SetDefault("bench.precision", c.Bench.Precision)
	v.SetDefault("bench.runs", c.Bench.Runs)
	v.SetDefault("bench.warmup", c.Bench.Warmup)
	v.SetDefault("bench.verify", c.Bench.Verify)
	v.SetDefault("output.format", c.Output.Format)
	v.SetDefault("log_level", c.LogLevel)
}

// bindFlags binds flags by config key rather than by alias so that values
// read from a config file still reach the nested keys.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %q: %w", name, err)
		}
	}
	return nil
}

func (c *Config) normalize() error {
	var err error
	if c.Bench.Alloc, err = NormalizeAlloc(c.Bench.Alloc); err != nil {
		return err
	}
	if c.Bench.Precision, err = NormalizePrecision(c.Bench.Precision); err != nil {
		return err
	}
	if c.Output.Format, err = NormalizeFormat(c.Output.Format); err != nil {
		return err
	}
	if c.Bench.Runs < 1 {
		return fmt.Errorf("bench.runs must be at least 1 (got %d)", c.Bench.Runs)
	}
	if c.Bench.Warmup < 0 {
		return fmt.Errorf("bench.warmup must not be negative (got %d)", c.Bench.Warmup)
	}
	return nil
}
