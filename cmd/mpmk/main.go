// Command mpmk builds a mini-program project in the current directory.
//
//	mpmk build          # clean and build dist/ for production
//	mpmk dev            # clean, build with the dev environment and watch
//	mpmk wxss           # compile changed styles only
//	mpmk newfile -p foo # create src/pages/foo from the page template
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"git.fractalqb.de/fractalqb/mpmk"
	"git.fractalqb.de/fractalqb/mpmk/mpmkore"
	"git.fractalqb.de/fractalqb/mpmk/scaffold"
	charmlog "github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// Steps offered as sub commands
var stepCmds = []struct{ name, short string }{
	{"clean", "Remove the distribution directory"},
	{"wxml", "Copy changed markup files"},
	{"js", "Copy changed scripts"},
	{"json", "Copy changed configuration files"},
	{"wxss", "Compile changed style sources"},
	{"img", "Compress changed images"},
	{"devEnv", "Use the dev environment as env.js"},
	{"testEnv", "Use the test environment as env.js"},
	{"prodEnv", "Use the production environment as env.js"},
	{"watch", "Rebuild changed files until interrupted"},
	{"build", "Clean and build for production"},
	{"dev", "Clean, build for development and watch"},
	{"test", "Clean and build for testing"},
}

type app struct {
	dir, config string
	logLevel    string
	trace       string
	plain       bool
	dot         bool
	dryRun      bool
	jobs        int
	noNotify    bool

	log *slog.Logger
	cfg mpmk.Config
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd(&app{}).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func rootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "mpmk",
		Short:         "Build mini-program assets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	fs := root.PersistentFlags()
	fs.StringVarP(&a.dir, "dir", "C", ".", "Project directory")
	fs.StringVar(&a.config, "config", "", "Config file (default <dir>/mpmk.yaml)")
	fs.StringVar(&a.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	fs.StringVar(&a.trace, "trace", "info", "Trace level: off, warn, info, debug")
	fs.BoolVar(&a.plain, "plain", false, "Write plain trace lines instead of log records")
	fs.BoolVar(&a.dot, "dot", false, "Write graphviz file of the step to stdout and exit")
	fs.BoolVarP(&a.dryRun, "dry-run", "n", false, "Only log what clean would remove")
	fs.IntVarP(&a.jobs, "jobs", "j", 0, "Max. parallel tasks per step, 0 is unlimited")
	fs.BoolVar(&a.noNotify, "no-notify", false, "No failure notifications")

	for _, s := range stepCmds {
		root.AddCommand(&cobra.Command{
			Use:   s.name,
			Short: s.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.runStep(cmd.Context(), s.name)
			},
		})
	}
	root.AddCommand(newfileCmd(a))
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	level, err := charmlog.ParseLevel(a.logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "mpmk:", err)
		return err
	}
	logger := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Level:           level,
	})
	a.log = slog.New(logger)
	slog.SetDefault(a.log)

	if a.cfg, err = loadConfig(a.dir, a.config, cmd.Flags()); err != nil {
		a.log.Error("configuration", "error", err)
		return err
	}
	if a.noNotify {
		a.cfg.Notify = false
	}
	return nil
}

func (a *app) tracer() (mpmkore.Tracer, error) {
	if a.plain {
		tr := &mpmk.WriteTracer{W: os.Stderr}
		if err := tr.ParseLogFlag(a.trace); err != nil {
			return nil, err
		}
		return tr, nil
	}
	if a.trace == "off" {
		return mpmk.LogTracer{Log: slog.New(slog.NewTextHandler(io.Discard, nil))}, nil
	}
	return mpmk.LogTracer{Log: a.log}, nil
}

func (a *app) notifier() mpmkore.Notifier {
	if !a.cfg.Notify {
		return nil
	}
	ln := mpmk.LogNotifier{Log: a.log}
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		return mpmk.Notifiers{ln, mpmk.DesktopNotifier{}}
	}
	return ln
}

func (a *app) runStep(ctx context.Context, name string) error {
	prj := mpmk.NewProject(a.dir)
	pl, err := mpmk.New(prj, a.cfg, mpmk.Tools{})
	if err != nil {
		a.log.Error("setup pipeline", "error", err)
		return err
	}
	if a.dot {
		step, _ := pl.Step(name)
		dia := mpmk.Diagrammer{RankDir: "LR"}
		return dia.WriteDot(os.Stdout, step)
	}

	tracer, err := a.tracer()
	if err != nil {
		return err
	}
	trace := mpmkore.NewTrace(ctx, tracer)
	env := mpmkore.DefaultEnv(trace)
	env.Log = a.log
	env.Notify = a.notifier()
	runner, err := mpmkore.NewRunner(prj, trace, env)
	if err != nil {
		return err
	}
	if err = pl.Run(runner, name); err != nil && !a.plain {
		a.log.Error(fmt.Sprintf("%s failed", name), "error", err)
	}
	return err
}

func newfileCmd(a *app) *cobra.Command {
	var req scaffold.Request
	cmd := &cobra.Command{
		Use:   "newfile",
		Short: "Create a page or component from a template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gen := scaffold.Generator{
				SrcDir: filepath.Join(a.dir, filepath.FromSlash(a.cfg.Src)),
				Log:    a.log,
			}
			dir, err := gen.Create(req)
			if errors.Is(err, scaffold.ErrUsage) {
				a.log.Error("newfile", "error", err)
				cmd.Usage()
				return err
			} else if err != nil {
				a.log.Error("newfile", "error", err)
				return err
			}
			a.log.Info("created `dir`", "dir", dir)
			return nil
		},
	}
	cmd.Flags().StringVarP(&req.Source, "src", "s", scaffold.DefaultSource, "Template source")
	cmd.Flags().StringVarP(&req.Page, "page", "p", "", "Name of the new page")
	cmd.Flags().StringVarP(&req.Component, "component", "c", "", "Name of the new component")
	return cmd
}
