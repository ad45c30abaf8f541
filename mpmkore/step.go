package mpmkore

import (
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Step is a node of a task graph that a Runner can run.
type Step interface {
	Name() string
	Run(r *Runner, tr *Trace) error
}

// Series runs its steps one after the other. The first failing step aborts
// the series and its error is the only one reported.
type Series struct {
	name  string
	Steps []Step
}

func NewSeries(name string, steps ...Step) *Series {
	return &Series{name: name, Steps: steps}
}

func (s *Series) Name() string {
	if s.name == "" {
		return composedName("series", s.Steps)
	}
	return s.name
}

func (s *Series) Run(r *Runner, tr *Trace) error {
	tr = tr.pushStep(s)
	tr.startStep(s)
	for _, step := range s.Steps {
		if err := tr.Ctx().Err(); err != nil {
			return err
		}
		if err := step.Run(r, tr); err != nil {
			return err
		}
	}
	return nil
}

// Parallel starts all its steps concurrently and waits for all of them to
// finish. Failing steps do not cancel their siblings. The errors of all
// failed steps are reported together.
type Parallel struct {
	name  string
	Steps []Step
}

func NewParallel(name string, steps ...Step) *Parallel {
	return &Parallel{name: name, Steps: steps}
}

func (p *Parallel) Name() string {
	if p.name == "" {
		return composedName("parallel", p.Steps)
	}
	return p.name
}

func (p *Parallel) Run(r *Runner, tr *Trace) error {
	tr = tr.pushStep(p)
	tr.startStep(p)
	var (
		grp  errgroup.Group
		errs = make([]error, len(p.Steps))
	)
	if r.MaxParallel > 0 {
		grp.SetLimit(r.MaxParallel)
	}
	for i, step := range p.Steps {
		grp.Go(func() error {
			errs[i] = step.Run(r, tr)
			return nil
		})
	}
	grp.Wait()
	return errors.Join(errs...)
}

func composedName(kind string, steps []Step) string {
	var sb strings.Builder
	sb.WriteString(kind)
	sb.WriteByte('(')
	for i, s := range steps {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(s.Name())
	}
	sb.WriteByte(')')
	return sb.String()
}
