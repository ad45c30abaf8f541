package mpmkore

import (
	"errors"
	"fmt"
	"time"
)

// Runner runs steps of one project. The Runner is the only one that advances
// the last run time of tasks.
type Runner struct {
	// MaxParallel limits the number of concurrently running branches of
	// each Parallel step. Zero means no limit.
	MaxParallel int

	prj   *Project
	trace *Trace
	env   *Env
}

func NewRunner(prj *Project, tr *Trace, env *Env) (*Runner, error) {
	switch {
	case prj == nil:
		return nil, errors.New("no project for new runner")
	case tr == nil:
		return nil, errors.New("no trace for new runner")
	}
	if env == nil {
		env = DefaultEnv(tr)
	}
	return &Runner{prj: prj, trace: tr, env: env}, nil
}

func (r *Runner) Project() *Project { return r.prj }

func (r *Runner) Env() *Env { return r.env }

// Run runs steps in series while holding the project's run lock.
func (r *Runner) Run(steps ...Step) (err error) {
	if len(steps) == 0 {
		return nil
	}
	rid := r.prj.LockRun()
	defer r.prj.Unlock()
	r.trace.root.run = rid

	start := time.Now()
	r.trace.startRun(r.prj)
	defer func() { r.trace.doneRun(r.prj, time.Since(start), err) }()
	for _, s := range steps {
		if err = r.trace.Ctx().Err(); err != nil {
			return err
		}
		if err = s.Run(r, r.trace); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runTask(tr *Trace, t *Task) error {
	if t.prj != r.prj {
		return fmt.Errorf("task '%s' is not in project '%s'", t.name, r.prj)
	}
	t.run.Lock()
	defer t.run.Unlock()

	tr = tr.pushTask(t)
	if err := tr.Ctx().Err(); err != nil {
		return err
	}
	start := time.Now()
	batch := Batch{Task: t, Env: r.env}
	if t.Incremental {
		batch.Since = t.LastRun()
	}
	if t.Sources != nil {
		var err error
		batch.Files, err = t.Sources.Select(r.prj.FS, batch.Since)
		if err != nil {
			return r.failTask(tr, t, fmt.Errorf("select sources: %w", err))
		}
		if len(batch.Files) == 0 && t.Incremental {
			tr.taskUpToDate(t)
			t.succeeded(start)
			return nil
		}
	}
	tr.startTask(t, len(batch.Files))
	if err := t.Op.Do(tr, &batch); err != nil {
		return r.failTask(tr, t, err)
	}
	t.succeeded(start)
	tr.doneTask(t, len(batch.Files), time.Since(start))
	return nil
}

func (r *Runner) failTask(tr *Trace, t *Task, err error) error {
	err = &TaskError{Task: t.name, Err: err}
	tr.failTask(t, err)
	if r.env.Notify != nil {
		n := Notification{
			Title:    r.prj.String(),
			Subtitle: "Failure!",
			Message:  err.Error(),
			Err:      err,
		}
		if nerr := r.env.Notify.Notify(tr.Ctx(), n); nerr != nil {
			tr.Warn("cannot notify `error`", `error`, nerr)
		}
	}
	return err
}
