// Package engineconfig loads the ambient configuration for a hosted
// Engine (log level, and the ticker/trace/debugserver domain packages'
// settings) from a TOML or YAML file, with environment variable
// overrides, grounded on the teacher repository's feeders package:
// feeders/toml.go and gopkg.in/yaml.v3 for file decoding,
// feeders/affixed_env.go's reflect+cast env-tag pattern for overrides.
//
// File-change watching uses fsnotify, a dependency the teacher's own
// go.mod declares but whose import never appears in its source — here it
// is actually wired to drive hot reload.
package engineconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/aldebogdanov/missionary"
	"github.com/fsnotify/fsnotify"
	"github.com/golobby/cast"
	"gopkg.in/yaml.v3"
)

// EngineConfig holds the settings a host process typically wants to load
// from a file rather than hard-code: log verbosity, the reactor's
// runaway-tick circuit breaker, and the ticker/trace/debugserver domain
// packages' addresses and schedules.
type EngineConfig struct {
	LogLevel           string `toml:"log_level" yaml:"log_level" env:"LOG_LEVEL"`
	MaxTicksPerInstant int    `toml:"max_ticks_per_instant" yaml:"max_ticks_per_instant" env:"MAX_TICKS_PER_INSTANT"`
	TickerSchedule     string `toml:"ticker_schedule" yaml:"ticker_schedule" env:"TICKER_SCHEDULE"`
	TickerTimezone     string `toml:"ticker_timezone" yaml:"ticker_timezone" env:"TICKER_TIMEZONE"`
	TraceSource        string `toml:"trace_source" yaml:"trace_source" env:"TRACE_SOURCE"`
	DebugServerAddr    string `toml:"debug_server_addr" yaml:"debug_server_addr" env:"DEBUG_SERVER_ADDR"`
}

// Apply pushes the tunables this package owns onto a live engine. It is
// safe to call repeatedly (e.g. from Watcher's onReload), and only
// touches settings engine.go exposes a public setter for.
func Apply(cfg *EngineConfig, eng *missionary.Engine) {
	eng.SetMaxTicksPerInstant(cfg.MaxTicksPerInstant)
}

// Load reads path (.toml, .yaml, or .yml) into a new EngineConfig.
func Load(path string) (*EngineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("engineconfig: read %s: %w", path, err)
	}

	cfg := &EngineConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("engineconfig: parse toml %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("engineconfig: parse yaml %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("engineconfig: unsupported config extension %q", filepath.Ext(path))
	}
	return cfg, nil
}

// ApplyEnvOverrides overwrites any field whose env tag names a set
// environment variable prefixed with prefix + "_" (prefix is upper-cased
// the same way feeders.AffixedEnvFeeder does), e.g. prefix "MISSIONARY"
// and tag "log_level" reads MISSIONARY_LOG_LEVEL.
func ApplyEnvOverrides(cfg *EngineConfig, prefix string) error {
	prefix = strings.ToUpper(prefix)
	rv := reflect.ValueOf(cfg).Elem()
	rt := rv.Type()
	for i := 0; i < rv.NumField(); i++ {
		tag, ok := rt.Field(i).Tag.Lookup("env")
		if !ok {
			continue
		}
		name := strings.ToUpper(tag)
		if prefix != "" {
			name = prefix + "_" + name
		}
		raw, set := os.LookupEnv(name)
		if !set {
			continue
		}
		field := rv.Field(i)
		converted, err := cast.FromType(raw, field.Type())
		if err != nil {
			return fmt.Errorf("engineconfig: env %s: %w", name, err)
		}
		field.Set(reflect.ValueOf(converted))
	}
	return nil
}

// Watcher reloads EngineConfig from disk whenever the watched file
// changes. fsnotify delivers change events on its own goroutine; Watcher
// only forwards a fresh reload result through Run, which the host must
// call from whichever goroutine should own the reload callback (matching
// the separation package ticker draws between cron's goroutine and its
// Driver).
type Watcher struct {
	path string
	fsw  *fsnotify.Watcher
}

// NewWatcher starts watching the directory containing path (fsnotify
// watches directories, not bare files, to survive editors that replace a
// file via rename-on-save).
func NewWatcher(path string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("engineconfig: create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("engineconfig: watch %s: %w", path, err)
	}
	return &Watcher{path: path, fsw: fsw}, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run blocks, reloading path and invoking onReload each time fsnotify
// reports a write or rename-in affecting it, until stop is closed or the
// watcher is closed. Reload errors are passed to onError instead of
// aborting the loop, since a half-written file mid-save is expected.
func (w *Watcher) Run(stop <-chan struct{}, onReload func(*EngineConfig), onError func(error)) {
	target := filepath.Clean(w.path)
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
				continue
			}
			cfg, err := Load(w.path)
			if err != nil {
				if onError != nil {
					onError(err)
				}
				continue
			}
			if onReload != nil {
				onReload(cfg)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if onError != nil {
				onError(err)
			}
		case <-stop:
			return
		}
	}
}
