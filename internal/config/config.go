package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/example/go-rsvp/internal/rsvp"
	"github.com/example/go-rsvp/internal/session"
)

type Config struct {
	LogLevel string       `mapstructure:"log_level"`
	Reader   ReaderConfig `mapstructure:"reader"`
	Server   ServerConfig `mapstructure:"server"`
}

type ReaderConfig struct {
	WPM      float64 `mapstructure:"wpm"`
	MinWPM   float64 `mapstructure:"min_wpm"`
	MaxWPM   float64 `mapstructure:"max_wpm"`
	WPMStep  float64 `mapstructure:"wpm_step"`
	SeekStep int     `mapstructure:"seek_step"`
	Autoplay bool    `mapstructure:"autoplay"`
}

type ServerConfig struct {
	ListenAddr      string `mapstructure:"listen_addr"`
	Workers         int    `mapstructure:"workers"`
	MaxTextBytes    int    `mapstructure:"max_text_bytes"`
	RequestTimeout  int    `mapstructure:"request_timeout"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
	MaxSessions     int    `mapstructure:"max_sessions"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Reader: ReaderConfig{
			WPM:      rsvp.DefaultWPM,
			MinWPM:   rsvp.MinWPM,
			MaxWPM:   rsvp.MaxWPM,
			WPMStep:  rsvp.WPMStep,
			SeekStep: rsvp.SeekStep,
			Autoplay: true,
		},
		Server: ServerConfig{
			ListenAddr:      ":8080",
			Workers:         8,
			MaxTextBytes:    1 << 20,
			RequestTimeout:  10,
			ShutdownTimeout: 30,
			MaxSessions:     256,
		},
	}
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
	fs.Float64("wpm", defaults.Reader.WPM, "Reading rate in words per minute")
	fs.Float64("reader-min-wpm", defaults.Reader.MinWPM, "Lowest rate speed changes may reach")
	fs.Float64("reader-max-wpm", defaults.Reader.MaxWPM, "Highest rate speed changes may reach")
	fs.Float64("reader-wpm-step", defaults.Reader.WPMStep, "Rate change per speed step")
	fs.Int("reader-seek-step", defaults.Reader.SeekStep, "Words skipped per seek")
	fs.Bool("reader-autoplay", defaults.Reader.Autoplay, "Start playing as soon as a session is created")
	fs.String("server-listen-addr", defaults.Server.ListenAddr, "HTTP listen address")
	fs.Int("workers", defaults.Server.Workers, "Max concurrent playback streams")
	fs.Int("server-max-text-bytes", defaults.Server.MaxTextBytes, "Maximum accepted text size in bytes")
	fs.Int("server-request-timeout", defaults.Server.RequestTimeout, "Write timeout for playback stream frames in seconds")
	fs.Int("server-shutdown-timeout", defaults.Server.ShutdownTimeout, "Graceful shutdown drain period in seconds")
	fs.Int("server-max-sessions", defaults.Server.MaxSessions, "Maximum live sessions (0 = unbounded)")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, err
		}
	}

	v.SetEnvPrefix("RSVP")
	replacer := strings.NewReplacer("-", "_", ".", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("rsvp")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

// Limits returns the session limits described by r.
func (r ReaderConfig) Limits() session.Limits {
	return session.Limits{
		MinWPM:   r.MinWPM,
		MaxWPM:   r.MaxWPM,
		WPMStep:  r.WPMStep,
		SeekStep: r.SeekStep,
	}
}

// Validate rejects rates the tokenizer cannot use and inconsistent limits.
func (c Config) Validate() error {
	r := c.Reader
	for _, wpm := range []float64{r.WPM, r.MinWPM, r.MaxWPM, r.WPMStep} {
		if err := rsvp.ValidateRate(wpm); err != nil {
			return err
		}
	}
	if r.MinWPM > r.MaxWPM {
		return fmt.Errorf("%w: reader.min_wpm %v above reader.max_wpm %v", rsvp.ErrInvalidRate, r.MinWPM, r.MaxWPM)
	}
	if r.WPM < r.MinWPM || r.WPM > r.MaxWPM {
		return fmt.Errorf("%w: reader.wpm %v outside [%v, %v]", rsvp.ErrInvalidRate, r.WPM, r.MinWPM, r.MaxWPM)
	}
	if r.SeekStep <= 0 {
		return fmt.Errorf("reader.seek_step must be positive, got %d", r.SeekStep)
	}
	if c.Server.MaxTextBytes <= 0 {
		return fmt.Errorf("server.max_text_bytes must be positive, got %d", c.Server.MaxTextBytes)
	}
	return nil
}

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"log-level":               "log_level",
	"wpm":                     "reader.wpm",
	"reader-min-wpm":          "reader.min_wpm",
	"reader-max-wpm":          "reader.max_wpm",
	"reader-wpm-step":         "reader.wpm_step",
	"reader-seek-step":        "reader.seek_step",
	"reader-autoplay":         "reader.autoplay",
	"server-listen-addr":      "server.listen_addr",
	"workers":                 "server.workers",
	"server-max-text-bytes":   "server.max_text_bytes",
	"server-request-timeout":  "server.request_timeout",
	"server-shutdown-timeout": "server.shutdown_timeout",
	"server-max-sessions":     "server.max_sessions",
}

// bindFlags binds each registered flag to its nested config key so that
// flags override config files and environment only when set.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("log_level", c.LogLevel)
	v.SetDefault("reader.wpm", c.Reader.WPM)
	v.SetDefault("reader.min_wpm", c.Reader.MinWPM)
	v.SetDefault("reader.max_wpm", c.Reader.MaxWPM)
	v.SetDefault("reader.wpm_step", c.Reader.WPMStep)
	v.SetDefault("reader.seek_step", c.Reader.SeekStep)
	v.SetDefault("reader.autoplay", c.Reader.Autoplay)
	v.SetDefault("server.listen_addr", c.Server.ListenAddr)
	v.SetDefault("server.workers", c.Server.Workers)
	v.SetDefault("server.max_text_bytes", c.Server.MaxTextBytes)
	v.SetDefault("server.request_timeout", c.Server.RequestTimeout)
	v.SetDefault("server.shutdown_timeout", c.Server.ShutdownTimeout)
	v.SetDefault("server.max_sessions", c.Server.MaxSessions)
}
