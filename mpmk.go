package mpmk

import (
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"

	"git.fractalqb.de/fractalqb/mpmk/imgmin"
	"git.fractalqb.de/fractalqb/mpmk/mkfs"
	"git.fractalqb.de/fractalqb/mpmk/mpmkore"
	"git.fractalqb.de/fractalqb/mpmk/wxss"
)

type (
	Env     = mpmkore.Env
	Project = mpmkore.Project
	Task    = mpmkore.Task
	Step    = mpmkore.Step
)

func NewProject(dir string) *Project { return mpmkore.NewProject(dir) }

// Tools are the external collaborators of a Pipeline. Nil tools are created
// from the Config.
type Tools struct {
	Compiler   wxss.Compiler
	Prefixer   wxss.Prefixer
	Compressor imgmin.Compressor
}

// Pipeline is the fixed task graph of a mini-program project.
type Pipeline struct {
	Project *Project
	Config  Config

	Clean, Wxml, JS, JSON, Wxss, Img *Task
	DevEnv, TestEnv, ProdEnv         *Task

	Watch            *mpmkore.Watch
	Build, Dev, Test *mpmkore.Series
}

// New registers all tasks of the pipeline described by cfg in prj.
func New(prj *Project, cfg Config, tools Tools) (pl *Pipeline, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	defer func() {
		if p := recover(); p != nil {
			pl = nil
			switch p := p.(type) {
			case error:
				err = p
			case string:
				err = errors.New(p)
			default:
				err = fmt.Errorf("panic: %+v", p)
			}
		}
	}()
	if tools.Compiler == nil {
		tools.Compiler = wxss.SassCmd{Exe: cfg.Sass, Dir: prj.Dir}
	}
	if tools.Prefixer == nil {
		if cfg.PostCSS == "" {
			tools.Prefixer = wxss.NoPrefix
		} else {
			tools.Prefixer = wxss.PostCSSCmd{Exe: cfg.PostCSS}
		}
	}
	if tools.Compressor == nil {
		tools.Compressor = imgmin.Recoder{JPEGQuality: cfg.JPEGQuality}
	}

	pl = &Pipeline{Project: prj, Config: cfg}
	var (
		src  = path.Clean(cfg.Src)
		dist = path.Clean(cfg.Dist)
		dest = mkfs.Dest{Strip: src, Dir: dist}
		glob = func(ps ...string) mkfs.Glob {
			for i, p := range ps {
				if x, ok := strings.CutPrefix(p, "!"); ok {
					ps[i] = "!" + path.Join(src, x)
				} else {
					ps[i] = path.Join(src, p)
				}
			}
			g := mkfs.Patterns(ps...)
			g.Filter = mkfs.Not(mkfs.EditorFiles)
			return g
		}
		styleSrc = []string{"**/*.{scss,wxss}"}
	)
	for _, d := range cfg.DirectImport {
		if d = strings.Trim(d, "/"); d != "" {
			styleSrc = append(styleSrc, "!**/"+d+"/**")
		}
	}

	pl.Clean = mustTask(prj, "clean", nil, mkfs.Clean{Dir: dist, DryRun: cfg.DryRun}, false)
	pl.Wxml = mustTask(prj, "wxml", glob("**/*.wxml"), mkfs.Copy{Dest: dest}, true)
	pl.JS = mustTask(prj, "js", glob("**/*.js", "!**/env/*.js"), mkfs.Copy{Dest: dest}, true)
	pl.JSON = mustTask(prj, "json", glob("**/*.json"), mkfs.Copy{Dest: dest}, true)

	styles := wxss.NewPipeline(tools.Compiler, tools.Prefixer)
	styles.Allow = wxss.AllowList(cfg.DirectImport)
	styles.Targets = cfg.Targets
	pl.Wxss = mustTask(prj, "wxss", glob(styleSrc...), styles.Op(dest), true)

	pl.Img = mustTask(prj, "img",
		glob("**/images/**/*.{png,jpg,gif,ico}"),
		imgmin.Op(tools.Compressor, dest),
		true,
	)

	envTask := func(name, variant string) *Task {
		op := mkfs.CopyAs{
			From: path.Join(src, "env", variant+".js"),
			To:   path.Join(dist, "env.js"),
		}
		return mustTask(prj, name, nil, op, false)
	}
	pl.DevEnv = envTask("devEnv", cfg.Env.Dev)
	pl.TestEnv = envTask("testEnv", cfg.Env.Test)
	pl.ProdEnv = envTask("prodEnv", cfg.Env.Prod)

	pl.Watch = mpmkore.NewWatch("watch").
		Bind(pl.Wxss, nil).
		Bind(pl.JS, nil).
		Bind(pl.JSON, nil).
		Bind(pl.Img, nil).
		Bind(pl.Wxml, nil)
	pl.Watch.Wait = cfg.Debounce

	assets := func(env *Task) *mpmkore.Parallel {
		return mpmkore.NewParallel("",
			pl.Wxml, pl.JS, pl.JSON, pl.Wxss, pl.Img, env,
		)
	}
	pl.Build = mpmkore.NewSeries("build", pl.Clean, assets(pl.ProdEnv))
	pl.Dev = mpmkore.NewSeries("dev", pl.Clean, assets(pl.DevEnv), pl.Watch)
	pl.Test = mpmkore.NewSeries("test", pl.Clean, assets(pl.TestEnv))
	return pl, nil
}

func mustTask(prj *Project, name string, src mkfs.Glob, op mpmkore.Operation, incremental bool) *Task {
	var sel mpmkore.Selector
	if len(src.Include) > 0 {
		sel = src
	}
	t, err := prj.NewTask(name, sel, op)
	if err != nil {
		panic(err)
	}
	t.Incremental = incremental
	return t
}

// Step returns the named task or composition of the pipeline.
func (pl *Pipeline) Step(name string) (Step, bool) {
	switch name {
	case "build":
		return pl.Build, true
	case "dev":
		return pl.Dev, true
	case "test":
		return pl.Test, true
	case "watch":
		return pl.Watch, true
	}
	if t := pl.Project.Task(name); t != nil {
		return t, true
	}
	return nil, false
}

// StepNames returns the names of all steps known to Step.
func (pl *Pipeline) StepNames() []string {
	names := []string{"build", "dev", "test", "watch"}
	for _, t := range pl.Project.Tasks() {
		names = append(names, t.Name())
	}
	slices.Sort(names)
	return names
}

// Run runs the named steps in series with runner.
func (pl *Pipeline) Run(runner *mpmkore.Runner, names ...string) error {
	steps := make([]Step, 0, len(names))
	for _, n := range names {
		s, ok := pl.Step(n)
		if !ok {
			return fmt.Errorf("no task '%s' in project '%s'", n, pl.Project)
		}
		steps = append(steps, s)
	}
	if pl.Config.MaxParallel > 0 {
		runner.MaxParallel = pl.Config.MaxParallel
	}
	return runner.Run(steps...)
}
