// Package cli is the s3grab command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sgaunet/s3grab/pkg/app"
	"github.com/sgaunet/s3grab/pkg/config"
	"github.com/sgaunet/s3grab/pkg/progress"
	"github.com/sgaunet/s3grab/pkg/s3svc"
	"github.com/sgaunet/s3grab/pkg/settings"
)

// env is shared by every command of one invocation.
type env struct {
	cfgFile  string
	logLevel string

	cfg config.Config
	log *slog.Logger

	// replaced in tests
	openStore     func(ctx context.Context) (app.Store, error)
	settingsStore func() settings.Store
	renderer      func(w io.Writer, description string) progress.Renderer
}

func newEnv() *env {
	e := &env{}
	e.openStore = e.connect
	e.settingsStore = func() settings.Store {
		return settings.NewFileStore(e.cfg.SettingsFile, e.cfg.KeyFile)
	}
	e.renderer = e.defaultRenderer
	return e
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	return newRootCmd(newEnv())
}

func newRootCmd(e *env) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "s3grab",
		Short: "Browse S3 buckets and download files and folders",
		Long: `s3grab browses an S3 compatible object store like a file tree and
downloads files or whole folders to a local directory.

Credentials are read from the encrypted settings file (see "s3grab settings")
and can be overridden by the AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY,
AWS_SESSION_TOKEN and AWS_REGION environment variables.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.init(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&e.cfgFile, "config", "f", "", "Configuration file")
	rootCmd.PersistentFlags().StringVar(&e.logLevel, "loglevel", "", "Log level (debug, info, warn, error), overrides the configuration")

	rootCmd.AddCommand(newBucketsCmd(e))
	rootCmd.AddCommand(newLsCmd(e))
	rootCmd.AddCommand(newDownloadCmd(e))
	rootCmd.AddCommand(newBrowseCmd(e))
	rootCmd.AddCommand(newSettingsCmd(e))
	rootCmd.AddCommand(newServeCmd(e))
	return rootCmd
}

func (e *env) init(cmd *cobra.Command) error {
	if e.cfgFile == "" {
		e.cfg = config.Default()
	} else {
		cfg, err := config.ReadYamlCnxFile(e.cfgFile)
		if err != nil {
			return fmt.Errorf("error reading configuration file: %w", err)
		}
		e.cfg = cfg
	}
	if e.logLevel != "" {
		e.cfg.LogLevel = e.logLevel
	}
	e.log = initTrace(cmd.ErrOrStderr(), e.cfg.LogLevel)
	return nil
}

// connect builds the store client from the saved settings and the environment.
func (e *env) connect(ctx context.Context) (app.Store, error) {
	st, err := e.settingsStore().Load()
	if err != nil {
		return nil, fmt.Errorf("cannot load settings: %w", err)
	}
	svc, err := s3svc.New(ctx, e.cfg, st.Merge(settings.EnvSettings()))
	if err != nil {
		return nil, err
	}
	svc.SetLogger(e.log)
	return svc, nil
}

func (e *env) defaultRenderer(w io.Writer, description string) progress.Renderer {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return progress.NewBar(w, description)
	}
	return progress.NewLog(e.log)
}

// initTrace initializes the logger
func initTrace(w io.Writer, debugLevel string) *slog.Logger {
	handlerOptions := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	switch debugLevel {
	case "debug":
		handlerOptions.Level = slog.LevelDebug
		handlerOptions.AddSource = true
	case "info":
		handlerOptions.Level = slog.LevelInfo
	case "warn":
		handlerOptions.Level = slog.LevelWarn
	case "error":
		handlerOptions.Level = slog.LevelError
	default:
		handlerOptions.Level = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(w, handlerOptions))
}
