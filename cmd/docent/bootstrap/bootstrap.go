// Package bootstrap resolves the configuration, logger and credentials shared
// by docent subcommands and assembles the application from them.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/docent/pkg/app"
	"github.com/papercomputeco/docent/pkg/cliui"
	"github.com/papercomputeco/docent/pkg/config"
	"github.com/papercomputeco/docent/pkg/credentials"
	"github.com/papercomputeco/docent/pkg/logger"
)

// Env is the resolved environment of one command invocation.
type Env struct {
	ConfigDir string
	Debug     bool
	Config    *config.Config
	Logger    *slog.Logger
	Keys      app.KeyResolver
}

// AddPersistentFlags registers --debug, --config-dir and --log-file on the
// root command.
func AddPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .docent/ config directory")
	cmd.PersistentFlags().String("log-file", "", "Also append JSON logs at info level (debug with --debug) to this file")
}

// Load reads the persistent --debug and --config-dir flags, layers
// config.toml, DOCENT_* variables and the given flag sets through viper, and
// builds a logger on the command's stderr.
func Load(cmd *cobra.Command, sets ...config.FlagSet) (*Env, error) {
	debug, _ := cmd.Flags().GetBool("debug")
	configDir, _ := cmd.Flags().GetString("config-dir")
	logFile, _ := cmd.Flags().GetString("log-file")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, err
	}
	for _, fs := range sets {
		config.BindRegisteredFlags(v, cmd, fs, fs.Keys())
	}

	errOut := cmd.ErrOrStderr()
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	format := logger.FormatText
	if cliui.Interactive(errOut) {
		format = logger.FormatPretty
	}
	log := logger.New(
		logger.WithWriter(errOut),
		logger.WithFormat(format),
		logger.WithLevel(level),
	)

	if logFile != "" {
		fileLog, err := openLogFile(logFile, debug)
		if err != nil {
			return nil, err
		}
		log = logger.Tee(log, fileLog)
	}

	env := &Env{
		ConfigDir: configDir,
		Debug:     debug,
		Config:    config.FromViper(v),
		Logger:    log,
		Keys:      credentials.EnvResolver{},
	}

	mgr, err := credentials.NewManager(configDir)
	if err != nil {
		log.Warn("credentials unavailable, using environment only", "error", err)
	} else {
		env.Keys = mgr
	}

	return env, nil
}

// openLogFile opens path for appending. The handle lives as long as the
// process.
func openLogFile(path string, debug bool) (*slog.Logger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return logger.New(
		logger.WithWriter(f),
		logger.WithFormat(logger.FormatJSON),
		logger.WithLevel(level),
	), nil
}

// Factory builds the App for a command. Tests substitute one that injects
// fakes through Env.App.
type Factory func(ctx context.Context, env *Env) (*app.App, error)

// DefaultFactory builds the App from the environment alone.
func DefaultFactory(ctx context.Context, env *Env) (*app.App, error) {
	return env.App(ctx)
}

// App builds the application described by the environment. The with
// functions adjust the options before the build.
func (e *Env) App(ctx context.Context, with ...func(*app.Options)) (*app.App, error) {
	o := app.Options{
		ConfigDir: e.ConfigDir,
		Keys:      e.Keys,
		Logger:    e.Logger,
	}
	for _, fn := range with {
		fn(&o)
	}

	a, err := app.New(ctx, e.Config, o)
	if err != nil {
		return nil, fmt.Errorf("starting docent: %w", err)
	}
	return a, nil
}
