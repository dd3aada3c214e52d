package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
)

const (
	RoleExecutor  = "executor"
	RoleRequester = "requester"

	PlatformIOS     = "ios"
	PlatformAndroid = "android"
)

// Config is static: it is built once at startup and never reloaded.
type Config struct {
	Role     string
	Nodeaddr string
	// Executor is the address the requester dials.
	Executor  string
	Whitelist []string

	Secret string
	// Units maps a platform id to the interstitial ad unit used on it.
	Units    map[string]string
	Platform string

	LoadTimeout time.Duration
	ShowTimeout time.Duration
	GuardMargin time.Duration
	Cooldown    time.Duration
	// AfterEventID is the host event reserved after every show reply; 0 disables it.
	AfterEventID int

	JournalDir string
	FillRate   float64
}

// environment supplies the flag defaults.
type environment struct {
	Role         string        `env:"ADBRIDGE_ROLE" envDefault:"executor"`
	Nodeaddr     string        `env:"ADBRIDGE_NODEADDR" envDefault:"localhost:3050"`
	Executor     string        `env:"ADBRIDGE_EXECUTOR" envDefault:"localhost:3050"`
	Whitelist    string        `env:"ADBRIDGE_WHITELIST" envDefault:"127.0.0.1"`
	Secret       string        `env:"ADBRIDGE_SECRET"`
	IOSUnit      string        `env:"ADBRIDGE_IOS_UNIT" envDefault:"ca-app-pub-3940256099942544/1033173712"`
	AndroidUnit  string        `env:"ADBRIDGE_ANDROID_UNIT" envDefault:"ca-app-pub-3940256099942544/1033173712"`
	Platform     string        `env:"ADBRIDGE_PLATFORM"`
	LoadTimeout  time.Duration `env:"ADBRIDGE_LOAD_TIMEOUT" envDefault:"12s"`
	ShowTimeout  time.Duration `env:"ADBRIDGE_SHOW_TIMEOUT" envDefault:"20s"`
	GuardMargin  time.Duration `env:"ADBRIDGE_GUARD_MARGIN" envDefault:"500ms"`
	Cooldown     time.Duration `env:"ADBRIDGE_COOLDOWN" envDefault:"700ms"`
	AfterEventID int           `env:"ADBRIDGE_AFTER_EVENT" envDefault:"0"`
	JournalDir   string        `env:"ADBRIDGE_JOURNAL_DIR"`
	FillRate     float64       `env:"ADBRIDGE_FILL_RATE" envDefault:"0.9"`
}

// Get creates configuration from ADBRIDGE_* environment variables overridden by command-line arguments.
func Get() (*Config, error) {
	return Parse(flag.CommandLine, os.Args[1:])
}

// Parse builds a Config from args using fs.
func Parse(fs *flag.FlagSet, args []string) (*Config, error) {
	var defaults environment
	if err := env.Parse(&defaults); err != nil {
		return nil, errors.Wrap(err, "parse environment")
	}

	role := fs.String("role", defaults.Role, "role (executor or requester)")
	nodeaddr := fs.String("nodeaddr", defaults.Nodeaddr, "executor listen address")
	executor := fs.String("executor", defaults.Executor, "executor address (requester only)")
	whitelist := fs.String("whitelist", defaults.Whitelist, "allowed hosts")
	secret := fs.String("secret", defaults.Secret, "shared bridge token")
	iosUnit := fs.String("ios-unit", defaults.IOSUnit, "iOS interstitial ad unit id")
	androidUnit := fs.String("android-unit", defaults.AndroidUnit, "Android interstitial ad unit id")
	platform := fs.String("platform", defaults.Platform, "platform id of the requester (ios or android)")
	loadTimeout := fs.Duration("load-timeout", defaults.LoadTimeout, "timeout of a single ad load")
	showTimeout := fs.Duration("show-timeout", defaults.ShowTimeout, "timeout of a single ad show")
	guardMargin := fs.Duration("guard-margin", defaults.GuardMargin, "added to the longest timeout to bound every reply")
	cooldown := fs.Duration("cooldown", defaults.Cooldown, "minimum spacing between sends of the same command")
	afterEvent := fs.Int("after-event", defaults.AfterEventID, "host event reserved after each show reply (0 disables)")
	journalDir := fs.String("journal", defaults.JournalDir, "directory of the reply journal (executor only, empty disables)")
	fillRate := fs.Float64("fill-rate", defaults.FillRate, "fill rate of the simulated ad network")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	conf := &Config{
		Role:      *role,
		Nodeaddr:  *nodeaddr,
		Executor:  *executor,
		Whitelist: split(*whitelist),
		Secret:    *secret,
		Units: map[string]string{
			PlatformIOS:     *iosUnit,
			PlatformAndroid: *androidUnit,
		},
		Platform:     *platform,
		LoadTimeout:  *loadTimeout,
		ShowTimeout:  *showTimeout,
		GuardMargin:  *guardMargin,
		Cooldown:     max(0, *cooldown),
		AfterEventID: *afterEvent,
		JournalDir:   *journalDir,
		FillRate:     *fillRate,
	}

	return conf, conf.validate()
}

func (c *Config) validate() error {
	if c.Role != RoleExecutor && c.Role != RoleRequester {
		return errors.Errorf("unknown role %q", c.Role)
	}
	if c.LoadTimeout <= 0 || c.ShowTimeout <= 0 {
		return errors.New("load and show timeouts must be positive")
	}
	if c.GuardMargin < 0 {
		return errors.New("guard margin cannot be negative")
	}
	return nil
}

func split(list string) []string {
	if list == "" {
		return nil
	}
	parts := strings.Split(list, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
