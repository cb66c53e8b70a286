// refam - render engine family
//
// A terminal front end for the rasterizer and the ray marcher.
//
//	refam view <model.obj|model.glb>   interactive model viewer
//	refam blackhole                    animated black hole scene
//	refam snapshot -o frame.png        headless render to an image or container
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tinunadno/render-engine-family/internal/logging"
	"github.com/tinunadno/render-engine-family/internal/parallel"
)

var version = "dev"

func main() {
	err := fang.Execute(
		context.Background(),
		newRootCmd(),
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
	)
	if err != nil {
		os.Exit(1)
	}
}

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	LogLevel string
	LogFile  string
	Workers  int

	logCloser io.Closer
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:          "refam",
		Short:        "Software rasterizer and ray marcher for the terminal",
		SilenceUsage: true,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return opts.close()
		},
	}
	opts.bind(root.PersistentFlags())

	root.AddCommand(
		newViewCmd(opts),
		newBlackHoleCmd(opts),
		newSnapshotCmd(opts),
	)
	return root
}

func (o *globalOptions) bind(fs *pflag.FlagSet) {
	fs.StringVar(&o.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	fs.StringVar(&o.LogFile, "log-file", "", "write logs to this file instead of stderr")
	fs.IntVar(&o.Workers, "workers", 0, "render workers (0 uses all CPUs)")
}

// setupLogging installs the process logger. Interactive commands own the
// terminal, so without --log-file they run silent.
func (o *globalOptions) setupLogging(interactive bool) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(o.LogLevel)); err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}

	var w io.Writer = os.Stderr
	switch {
	case o.LogFile != "":
		f, err := os.OpenFile(o.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		o.logCloser = f
		w = f
	case interactive:
		logging.Set(nil)
		return nil
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	logging.Set(logger)
	return nil
}

// pool starts a worker pool sized by --workers. Callers close it.
func (o *globalOptions) pool() *parallel.WorkerPool {
	return parallel.NewWorkerPool(o.Workers)
}

func (o *globalOptions) close() error {
	if o.logCloser == nil {
		return nil
	}
	err := o.logCloser.Close()
	o.logCloser = nil
	logging.Set(nil)
	return err
}
