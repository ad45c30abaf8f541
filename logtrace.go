package mpmk

import (
	"log/slog"
	"time"

	"git.fractalqb.de/fractalqb/mpmk/mpmkore"
)

// LogTracer sends trace events to a structured logger. Task progress is
// logged at info level, the step structure at debug level.
type LogTracer struct {
	Log *slog.Logger
}

var _ mpmkore.Tracer = LogTracer{}

func (tr LogTracer) log(t *mpmkore.Trace, level slog.Level, msg string, args ...any) {
	ctx := t.Ctx()
	if !tr.Log.Enabled(ctx, level) {
		return
	}
	args = append(args, slog.String("trace", t.String()))
	tr.Log.Log(ctx, level, msg, args...)
}

func (tr LogTracer) Debug(t *mpmkore.Trace, msg string, args ...any) {
	tr.log(t, slog.LevelDebug, msg, args...)
}

func (tr LogTracer) Info(t *mpmkore.Trace, msg string, args ...any) {
	tr.log(t, slog.LevelInfo, msg, args...)
}

func (tr LogTracer) Warn(t *mpmkore.Trace, msg string, args ...any) {
	tr.log(t, slog.LevelWarn, msg, args...)
}

func (tr LogTracer) StartRun(t *mpmkore.Trace, p *mpmkore.Project) {
	tr.log(t, slog.LevelDebug, "run `project` in `dir`",
		slog.String("project", p.String()),
		slog.String("dir", p.Dir),
	)
}

func (tr LogTracer) DoneRun(t *mpmkore.Trace, p *mpmkore.Project, dt time.Duration, err error) {
	if err != nil {
		tr.log(t, slog.LevelError, "run `project` failed after `took`",
			slog.String("project", p.String()),
			slog.Duration("took", dt),
		)
		return
	}
	tr.log(t, slog.LevelInfo, "run `project` took `took`",
		slog.String("project", p.String()),
		slog.Duration("took", dt),
	)
}

func (tr LogTracer) StartStep(t *mpmkore.Trace, s mpmkore.Step) {
	tr.log(t, slog.LevelDebug, "start `step`", slog.String("step", s.Name()))
}

func (tr LogTracer) StartTask(t *mpmkore.Trace, task *mpmkore.Task, files int) {
	tr.log(t, slog.LevelDebug, "`task` starts with `files`",
		slog.String("task", task.Name()),
		slog.Int("files", files),
	)
}

func (tr LogTracer) TaskUpToDate(t *mpmkore.Trace, task *mpmkore.Task) {
	tr.log(t, slog.LevelDebug, "`task` is up-to-date", slog.String("task", task.Name()))
}

func (tr LogTracer) DoneTask(t *mpmkore.Trace, task *mpmkore.Task, files int, dt time.Duration) {
	tr.log(t, slog.LevelInfo, "`task` did `files` in `took`",
		slog.String("task", task.Name()),
		slog.Int("files", files),
		slog.Duration("took", dt),
	)
}

func (tr LogTracer) FailTask(t *mpmkore.Trace, task *mpmkore.Task, err error) {
	tr.log(t, slog.LevelError, "`task` failed: `error`",
		slog.String("task", task.Name()),
		slog.String("error", err.Error()),
	)
}

func (tr LogTracer) StartWatch(t *mpmkore.Trace, w *mpmkore.Watch, dirs int) {
	tr.log(t, slog.LevelInfo, "`watch` `dirs` directories",
		slog.String("watch", w.Name()),
		slog.Int("dirs", dirs),
	)
}

func (tr LogTracer) WatchEvent(t *mpmkore.Trace, w *mpmkore.Watch, path string, tasks []*mpmkore.Task) {
	names := make([]string, len(tasks))
	for i, task := range tasks {
		names[i] = task.Name()
	}
	tr.log(t, slog.LevelInfo, "`path` changed, schedule `tasks`",
		slog.String("path", path),
		slog.Any("tasks", names),
	)
}
