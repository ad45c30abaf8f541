package mpmk

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"git.fractalqb.de/fractalqb/mpmk/mpmkore"
	"git.fractalqb.de/fractalqb/sllm/v3"
)

// WriteTracer writes trace events as plain text lines to W.
type WriteTracer struct {
	W   io.Writer
	Log mpmkore.TraceLog

	mu sync.Mutex
}

var _ mpmkore.Tracer = (*WriteTracer)(nil)

func (tr *WriteTracer) ParseLogFlag(f string) error {
	switch f {
	case "":
		return nil
	case "off":
		tr.Log = 0
	case "warn", "w":
		tr.Log = mpmkore.TraceWarn
	case "info", "i":
		tr.Log = mpmkore.TraceWarn | mpmkore.TraceInfo
	case "debug", "d":
		tr.Log = mpmkore.TraceWarn | mpmkore.TraceInfo | mpmkore.TraceDebug
	default:
		return fmt.Errorf("write tracer: illegal log flag '%s'", f)
	}
	return nil
}

func (tr *WriteTracer) Debug(t *mpmkore.Trace, msg string, args ...any) {
	if tr.Log&mpmkore.TraceDebug == 0 {
		return
	}
	tr.msg(t, "DEBUG", msg, args)
}

func (tr *WriteTracer) Info(t *mpmkore.Trace, msg string, args ...any) {
	if tr.Log&(mpmkore.TraceInfo|mpmkore.TraceDebug) == 0 {
		return
	}
	tr.msg(t, "INFO ", msg, args)
}

func (tr *WriteTracer) Warn(t *mpmkore.Trace, msg string, args ...any) {
	if !tr.logWarn() {
		return
	}
	tr.msg(t, "WARN ", msg, args)
}

func (tr *WriteTracer) msg(t *mpmkore.Trace, level, msg string, args []any) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	fmt.Fprintf(tr.W, "%d@%s\t  %s ", t.Run(), t.TopTag(), level)
	sllm.Fprint(tr.W, msg, sllmArgs(args).append)
	fmt.Fprintln(tr.W)
}

func (tr *WriteTracer) printf(format string, args ...any) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	fmt.Fprintf(tr.W, format, args...)
}

func (tr *WriteTracer) logWarn() bool {
	return tr.Log&(mpmkore.TraceWarn|mpmkore.TraceInfo|mpmkore.TraceDebug) != 0
}

func (tr *WriteTracer) logTasks() bool {
	return tr.Log&(mpmkore.TraceInfo|mpmkore.TraceDebug) != 0
}

func (tr *WriteTracer) StartRun(t *mpmkore.Trace, p *mpmkore.Project) {
	if tr.logTasks() {
		tr.printf("%d@%s\t{ run project '%s' in %s\n", t.Run(), t.TopTag(), p, p.Dir)
	}
}

func (tr *WriteTracer) DoneRun(t *mpmkore.Trace, p *mpmkore.Project, dt time.Duration, err error) {
	switch {
	case err != nil && tr.logWarn():
		tr.printf("%d@%s\t} run project '%s' failed after %s\n", t.Run(), t.TopTag(), p, dt)
	case err == nil && tr.logTasks():
		tr.printf("%d@%s\t} run project '%s' took %s\n", t.Run(), t.TopTag(), p, dt)
	}
}

func (tr *WriteTracer) StartStep(t *mpmkore.Trace, s mpmkore.Step) {
	if tr.Log&mpmkore.TraceDebug != 0 {
		tr.printf("%d@%s\t  start %s %s\n", t.Run(), t.TopTag(), s.Name(), t.Path())
	}
}

func (tr *WriteTracer) StartTask(t *mpmkore.Trace, task *mpmkore.Task, files int) {
	if tr.logTasks() {
		tr.printf("%d@%s\t? [%s] %s with %d files\n",
			t.Run(),
			t.TopTag(),
			task,
			task.Describe(),
			files,
		)
	}
}

func (tr *WriteTracer) TaskUpToDate(t *mpmkore.Trace, task *mpmkore.Task) {
	if tr.logTasks() {
		tr.printf("%d@%s\t. [%s] is up-to-date\n", t.Run(), t.TopTag(), task)
	}
}

func (tr *WriteTracer) DoneTask(t *mpmkore.Trace, task *mpmkore.Task, files int, dt time.Duration) {
	if tr.logTasks() {
		tr.printf("%d@%s\t. [%s] did %d files in %s\n", t.Run(), t.TopTag(), task, files, dt)
	}
}

func (tr *WriteTracer) FailTask(t *mpmkore.Trace, task *mpmkore.Task, err error) {
	if !tr.logWarn() {
		return
	}
	tr.mu.Lock()
	defer tr.mu.Unlock()
	fmt.Fprintf(tr.W, "%d@%s\t! [%s] failed:\n", t.Run(), t.TopTag(), task)
	pw := &mpmkore.PrefixWriter{W: tr.W, Prefix: "\t    "}
	fmt.Fprintln(pw, err)
}

func (tr *WriteTracer) StartWatch(t *mpmkore.Trace, w *mpmkore.Watch, dirs int) {
	if tr.logWarn() {
		tr.printf("%d@%s\t~ %s %d directories for %d tasks\n",
			t.Run(),
			t.TopTag(),
			w.Name(),
			dirs,
			len(w.Tasks()),
		)
	}
}

func (tr *WriteTracer) WatchEvent(t *mpmkore.Trace, w *mpmkore.Watch, path string, tasks []*mpmkore.Task) {
	if tr.logTasks() {
		tr.printf("%d@%s\t~ %s changed, schedule %v\n", t.Run(), t.TopTag(), path, tasks)
	}
}

type sllmArgs []any

func (as sllmArgs) append(buf []byte, _ int, n string) ([]byte, error) {
	for len(as) > 0 {
		switch k := as[0].(type) {
		case string:
			if len(as) == 1 {
				return buf, fmt.Errorf("no value for key '%s'", n)
			}
			if k == n {
				return sllm.AppendArg(buf, as[1]), nil
			}
			as = as[2:]
		case slog.Attr:
			if k.Key == n {
				return sllm.AppendArg(buf, k.Value), nil
			}
			as = as[1:]
		default:
			return buf, fmt.Errorf("illegal key type %T", k)
		}
	}
	return buf, fmt.Errorf("no key '%s'", n)
}
