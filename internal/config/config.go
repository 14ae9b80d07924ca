// Package config loads cloudsync CLI settings from an optional TOML file
// overlaid with command line flags.
package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	flag "github.com/spf13/pflag"

	"github.com/adamwoolhether/cloudsync/internal/validate"
)

// Defaults applied before the file and flags are read.
const (
	DefaultTimeout      = 60 * time.Second
	DefaultMaxRedirects = 10
	DefaultUserAgent    = "cloudsync"
)

// Config holds everything the CLI needs to build a client.
type Config struct {
	URL          string        `toml:"url" validate:"required,url"`
	Username     string        `toml:"username" validate:"required_with=Password"`
	Password     string        `toml:"password"`
	UserID       string        `toml:"user-id"`
	Timeout      time.Duration `toml:"timeout"`
	RPS          int           `toml:"rps" validate:"min=0"`
	Burst        int           `toml:"burst" validate:"min=0"`
	UserAgent    string        `toml:"user-agent"`
	MaxRedirects int           `toml:"max-redirects" validate:"min=1,max=20"`
	Verbose      bool          `toml:"verbose"`
}

// file mirrors the config file keys. Durations are written as strings.
type file struct {
	URL          string `toml:"url"`
	Username     string `toml:"username"`
	Password     string `toml:"password"`
	UserID       string `toml:"user-id"`
	Timeout      string `toml:"timeout"`
	RPS          int    `toml:"rps"`
	Burst        int    `toml:"burst"`
	UserAgent    string `toml:"user-agent"`
	MaxRedirects int    `toml:"max-redirects"`
	Verbose      bool   `toml:"verbose"`
}

func defaults() *Config {
	return &Config{
		Timeout:      DefaultTimeout,
		MaxRedirects: DefaultMaxRedirects,
		UserAgent:    DefaultUserAgent,
	}
}

// Load reads the TOML file at path over the defaults. An empty path
// returns the defaults.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path == "" {
		return cfg, nil
	}

	var raw file
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("decoding config file: %w", err)
	}

	if raw.URL != "" {
		cfg.URL = raw.URL
	}
	cfg.Username = raw.Username
	cfg.Password = raw.Password
	cfg.UserID = raw.UserID
	if raw.Timeout != "" {
		d, err := time.ParseDuration(raw.Timeout)
		if err != nil {
			return nil, fmt.Errorf("parsing timeout %q: %w", raw.Timeout, err)
		}
		cfg.Timeout = d
	}
	cfg.RPS = raw.RPS
	cfg.Burst = raw.Burst
	if raw.UserAgent != "" {
		cfg.UserAgent = raw.UserAgent
	}
	if raw.MaxRedirects != 0 {
		cfg.MaxRedirects = raw.MaxRedirects
	}
	cfg.Verbose = raw.Verbose

	return cfg, nil
}

// Parse reads args (without the program name), loads the file named by
// --config and applies every flag that was set on top of it. The
// remaining positional arguments are returned. The result is validated.
func Parse(args []string, output io.Writer) (*Config, []string, error) {
	fs := flag.NewFlagSet("cloudsync", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprintln(output, "Usage: cloudsync [options] <status|exists|ls|get|put|quota|whoami> [args...]")
		fs.PrintDefaults()
	}

	var (
		configPath   = fs.StringP("config", "c", "", "path to config file")
		serverURL    = fs.String("url", "", "server base url")
		user         = fs.StringP("user", "u", "", "username:password")
		userID       = fs.String("user-id", "", "user id used in WebDAV paths")
		timeout      = fs.DurationP("timeout", "t", DefaultTimeout, "overall request timeout")
		rps          = fs.Int("rps", 0, "requests per second, 0 disables throttling")
		burst        = fs.Int("burst", 0, "throttle burst size")
		userAgent    = fs.String("user-agent", DefaultUserAgent, "User-Agent header")
		maxRedirects = fs.Int("max-redirects", DefaultMaxRedirects, "redirect cap")
		verbose      = fs.BoolP("verbose", "v", false, "enable debug logging")
	)

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	cfg, err := Load(*configPath)
	if err != nil {
		return nil, nil, err
	}

	if fs.Changed("url") {
		cfg.URL = *serverURL
	}
	if fs.Changed("user") && *user != "" {
		name, password, _ := strings.Cut(*user, ":")
		cfg.Username = name
		cfg.Password = password
	}
	if fs.Changed("user-id") {
		cfg.UserID = *userID
	}
	if fs.Changed("timeout") {
		cfg.Timeout = *timeout
	}
	if fs.Changed("rps") {
		cfg.RPS = *rps
	}
	if fs.Changed("burst") {
		cfg.Burst = *burst
	}
	if fs.Changed("user-agent") {
		cfg.UserAgent = *userAgent
	}
	if fs.Changed("max-redirects") {
		cfg.MaxRedirects = *maxRedirects
	}
	if fs.Changed("verbose") {
		cfg.Verbose = *verbose
	}

	if err := validate.Check(cfg); err != nil {
		return nil, nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, fs.Args(), nil
}
