// Package config loads the settings of a verification run from .env files
// and HWVERIFY_* environment variables.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Prefix starts the name of every environment variable the package reads.
const Prefix = "HWVERIFY_"

// DefaultMonitorPort lets the system choose the port of the monitor.
const DefaultMonitorPort = 0

// Config holds the settings shared by all benches.
type Config struct {
	Seed        int64
	Strict      bool
	Verbose     bool
	OutputDir   string
	Record      string
	Monitor     bool
	MonitorPort int
	OpenBrowser bool

	// MonitorAssets is a directory to serve the monitoring page from. The
	// page built into the binary is served if it is empty.
	MonitorAssets string
}

// ErrInvalidValue is returned when a variable cannot be parsed.
var ErrInvalidValue = errors.New("invalid value")

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Seed:        1,
		MonitorPort: DefaultMonitorPort,
	}
}

// Load reads the given .env files, or .env in the working directory if none
// is given, and then the environment. Variables already set in the
// environment take precedence over the files. Missing files are skipped.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}

		if err := godotenv.Load(f); err != nil {
			return Config{}, errors.Wrapf(err, "loading %s", f)
		}
	}

	return FromEnv(os.LookupEnv)
}

// FromEnv builds a config from a lookup function.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	c := Default()
	l := loader{lookup: lookup}

	l.int64("SEED", &c.Seed)
	l.bool("STRICT", &c.Strict)
	l.bool("VERBOSE", &c.Verbose)
	l.string("OUTPUT_DIR", &c.OutputDir)
	l.string("RECORD", &c.Record)
	l.bool("MONITOR", &c.Monitor)
	l.int("MONITOR_PORT", &c.MonitorPort)
	l.bool("OPEN_BROWSER", &c.OpenBrowser)
	l.string("MONITOR_ASSETS", &c.MonitorAssets)

	if l.err != nil {
		return Config{}, l.err
	}

	return c, nil
}

type loader struct {
	lookup func(string) (string, bool)
	err    error
}

func (l *loader) value(name string) (string, bool) {
	if l.err != nil {
		return "", false
	}

	v, ok := l.lookup(Prefix + name)
	if !ok {
		return "", false
	}

	return strings.TrimSpace(v), true
}

func (l *loader) fail(name, v string) {
	l.err = errors.Wrapf(ErrInvalidValue, "%s%s=%q", Prefix, name, v)
}

func (l *loader) string(name string, dst *string) {
	if v, ok := l.value(name); ok {
		*dst = v
	}
}

func (l *loader) bool(name string, dst *bool) {
	v, ok := l.value(name)
	if !ok || v == "" {
		return
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		l.fail(name, v)
		return
	}

	*dst = b
}

func (l *loader) int64(name string, dst *int64) {
	v, ok := l.value(name)
	if !ok || v == "" {
		return
	}

	n, err := strconv.ParseInt(v, 0, 64)
	if err != nil {
		l.fail(name, v)
		return
	}

	*dst = n
}

func (l *loader) int(name string, dst *int) {
	n := int64(*dst)
	l.int64(name, &n)
	*dst = int(n)
}
