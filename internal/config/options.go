package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

// DefaultSettingsFile is loaded from the working directory when no --config is given.
const DefaultSettingsFile = ".relnotes.yaml"

// ctxKeyOptions is used to store options within a cobra command context.
type ctxKeyOptions struct{}

// Options contains global flags shared by the command.
type Options struct {
	JSONOutput bool
	Verbose    bool
	DryRun     bool
	LogFile    string
	ConfigFile string
	Settings   Settings

	logger   *logrus.Logger
	logClose func() error
}

var (
	optionsMu sync.RWMutex
	current   *Options
)

// New creates a new Options instance populated with defaults.
func New() *Options {
	return &Options{Settings: DefaultSettings()}
}

// Init populates options, loads the settings file and configures logging.
func (o *Options) Init(jsonOut, verbose, dry bool, logFile, configFile string) error {
	settings, source, err := resolveSettings(configFile)
	if err != nil {
		return err
	}

	o.JSONOutput = jsonOut
	o.Verbose = verbose
	o.DryRun = dry
	o.LogFile = logFile
	o.ConfigFile = source
	o.Settings = settings

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	if verbose {
		logger.SetLevel(logrus.InfoLevel)
		var output io.Writer = os.Stderr
		if logFile != "" {
			// #nosec G304 -- log file path provided via command flag
			f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
			if err != nil {
				return fmt.Errorf("failed to open log file: %w", err)
			}
			output = f
			o.logClose = f.Close
		}
		logger.SetOutput(output)
	} else {
		logger.SetLevel(logrus.WarnLevel)
		logger.SetOutput(io.Discard)
	}

	o.logger = logger
	if source != "" {
		logger.WithField("config", source).Info("Loaded settings file")
	}
	SetCurrent(o)

	return nil
}

// resolveSettings loads an explicit settings file, or the default one when it
// exists in the working directory. The returned source is empty when defaults apply.
func resolveSettings(configFile string) (Settings, string, error) {
	if configFile != "" {
		abs, err := filepath.Abs(configFile)
		if err != nil {
			return Settings{}, "", fmt.Errorf("failed to resolve config path: %w", err)
		}
		settings, err := LoadSettings(abs)
		if err != nil {
			return Settings{}, "", err
		}
		return settings, abs, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return Settings{}, "", fmt.Errorf("failed to determine current directory: %w", err)
	}
	candidate := filepath.Join(cwd, DefaultSettingsFile)
	if _, err := os.Stat(candidate); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultSettings(), "", nil
		}
		return Settings{}, "", fmt.Errorf("failed to inspect %s: %w", candidate, err)
	}
	settings, err := LoadSettings(candidate)
	if err != nil {
		return Settings{}, "", err
	}
	return settings, candidate, nil
}

// SetCurrent stores the provided options as the globally accessible configuration.
func SetCurrent(o *Options) {
	optionsMu.Lock()
	defer optionsMu.Unlock()
	current = o
}

// Current retrieves the globally stored options.
func Current() (*Options, error) {
	optionsMu.RLock()
	defer optionsMu.RUnlock()
	if current == nil {
		return nil, fmt.Errorf("configuration not initialised")
	}
	return current, nil
}

// Close releases any resources held by options (e.g., log files).
func (o *Options) Close() error {
	if o.logClose != nil {
		err := o.logClose()
		o.logClose = nil
		return err
	}
	return nil
}

// WithContext returns a new context with the options stored.
func (o *Options) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxKeyOptions{}, o)
}

// FromContext extracts Options from command context.
func FromContext(ctx context.Context) (*Options, error) {
	if ctx == nil {
		return nil, fmt.Errorf("nil context provided")
	}
	if opts, ok := ctx.Value(ctxKeyOptions{}).(*Options); ok {
		return opts, nil
	}
	return Current()
}

// Logger exposes the configured logger. Options that were never initialised
// get a logger that discards everything.
func (o *Options) Logger() *logrus.Logger {
	if o.logger == nil {
		logger := logrus.New()
		logger.SetOutput(io.Discard)
		o.logger = logger
	}
	return o.logger
}
