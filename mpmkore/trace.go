package mpmkore

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

type Tracer interface {
	Debug(t *Trace, msg string, args ...any)
	Info(t *Trace, msg string, args ...any)
	Warn(t *Trace, msg string, args ...any)

	StartRun(t *Trace, p *Project)
	DoneRun(t *Trace, p *Project, dt time.Duration, err error)

	StartStep(t *Trace, s Step)

	StartTask(t *Trace, task *Task, files int)
	TaskUpToDate(t *Trace, task *Task)
	DoneTask(t *Trace, task *Task, files int, dt time.Duration)
	FailTask(t *Trace, task *Task, err error)

	StartWatch(t *Trace, w *Watch, dirs int)
	WatchEvent(t *Trace, w *Watch, path string, tasks []*Task)
}

type TraceLog int

const (
	TraceWarn TraceLog = (1 << iota)
	TraceInfo
	TraceDebug
)

// Trace identifies the position of a running step within a run. Each pushed
// step gets a unique id.
type Trace struct {
	root *traceRoot
	up   *Trace
	obj  any
	id   uint64
}

func NewTrace(ctx context.Context, t Tracer) *Trace {
	root := &traceRoot{ctx: ctx, tr: t}
	return &Trace{root: root}
}

func (t *Trace) Ctx() context.Context { return t.root.ctx }

func (t *Trace) Debug(msg string, args ...any) { t.root.tr.Debug(t, msg, args...) }
func (t *Trace) Info(msg string, args ...any)  { t.root.tr.Info(t, msg, args...) }
func (t *Trace) Warn(msg string, args ...any)  { t.root.tr.Warn(t, msg, args...) }

func (t *Trace) startRun(p *Project) { t.root.tr.StartRun(t, p) }

func (t *Trace) doneRun(p *Project, dt time.Duration, err error) {
	t.root.tr.DoneRun(t, p, dt, err)
}

func (t *Trace) startStep(s Step) { t.root.tr.StartStep(t, s) }

func (t *Trace) startTask(task *Task, files int) { t.root.tr.StartTask(t, task, files) }

func (t *Trace) taskUpToDate(task *Task) { t.root.tr.TaskUpToDate(t, task) }

func (t *Trace) doneTask(task *Task, files int, dt time.Duration) {
	t.root.tr.DoneTask(t, task, files, dt)
}

func (t *Trace) failTask(task *Task, err error) { t.root.tr.FailTask(t, task, err) }

func (t *Trace) startWatch(w *Watch, dirs int) { t.root.tr.StartWatch(t, w, dirs) }

func (t *Trace) watchEvent(w *Watch, path string, tasks []*Task) {
	t.root.tr.WatchEvent(t, w, path, tasks)
}

// Run returns the id of the current run.
func (t *Trace) Run() RunID {
	if t.root == nil {
		return 0
	}
	return t.root.run
}

func (t *Trace) TopTag() string {
	switch t.obj.(type) {
	case *Task:
		return fmt.Sprintf("[%d]", t.id)
	case *Series, *Parallel:
		return fmt.Sprintf("(%d)", t.id)
	case *Watch:
		return fmt.Sprintf("{%d}", t.id)
	case nil:
		return ""
	}
	return fmt.Sprintf("!%T!", t.obj)
}

func (t *Trace) Path() string {
	var sb strings.Builder
	sb.WriteByte('<')
	for ; t != nil; t = t.up {
		sb.WriteString(t.TopTag())
	}
	sb.WriteByte('>')
	return sb.String()
}

func (t *Trace) String() string {
	return fmt.Sprintf("%d@%s", t.Run(), t.Path())
}

func (t *Trace) pushTask(task *Task) *Trace { return t.push(task) }

func (t *Trace) pushStep(s Step) *Trace { return t.push(s) }

func (t *Trace) push(obj any) *Trace {
	return &Trace{
		root: t.root,
		up:   t,
		obj:  obj,
		id:   t.root.idSeq.Add(1),
	}
}

type traceRoot struct {
	ctx   context.Context
	tr    Tracer
	run   RunID
	idSeq atomic.Uint64
}
