package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/art-e-fact/RoboProp/internal/blender"
	"github.com/art-e-fact/RoboProp/internal/config"
	"github.com/art-e-fact/RoboProp/internal/export"
	"github.com/art-e-fact/RoboProp/internal/fileserver"
	"github.com/art-e-fact/RoboProp/internal/logger"
)

// Exit codes.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitConfig      = 2
	ExitUnsupported = 3
	ExitTool        = 4
	ExitUpload      = 5
)

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, config.ErrInvalidConfig):
		return ExitConfig
	case errors.Is(err, export.ErrUnsupportedFormat):
		return ExitUnsupported
	case errors.Is(err, blender.ErrToolFailed):
		return ExitTool
	case errors.Is(err, fileserver.ErrStatus):
		return ExitUpload
	default:
		return ExitFailure
	}
}

// env is what every subcommand shares once the root has run.
type env struct {
	flags config.Flags
	cfg   *config.Config

	// newTool builds the authoring tool adapter; tests replace it.
	newTool func(cfg *config.Config) blender.Tool
}

func defaultTool(cfg *config.Config) blender.Tool {
	return blender.NewRunner(cfg.Blender.Path, cfg.Blender.ExtraArgs, cfg.Blender.Timeout)
}

// Execute runs the CLI and returns the exit code.
func Execute() int {
	return run(os.Args[1:], os.Stdout, os.Stderr, &env{newTool: defaultTool})
}

func run(args []string, stdout, stderr io.Writer, e *env) int {
	root := newRootCmd(e)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	// Interrupts cancel the context, which kills running Blender processes.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := root.ExecuteContext(ctx)
	logger.Sync()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return ExitCode(err)
}

func newRootCmd(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:           "roboprop",
		Short:         "Convert Blender scenes into simulator-ready model bundles",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(&e.flags)
			if err != nil {
				return err
			}
			e.cfg = cfg

			if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
				return fmt.Errorf("logger: %w", err)
			}
			logger.Sugar.Debugf("config: %+v", redacted(cfg))
			return nil
		},
	}
	e.flags.Bind(root.PersistentFlags())

	root.AddCommand(
		convertCmd(e),
		buildCmd(e),
		inspectCmd(e),
		uploadCmd(e),
		listCmd(e),
		configCmd(e),
	)
	return root
}

// redacted returns a copy of cfg safe to log.
func redacted(cfg *config.Config) config.Config {
	c := *cfg
	if c.FileServer.APIKey != "" {
		c.FileServer.APIKey = "***"
	}
	return c
}
