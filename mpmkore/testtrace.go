package mpmkore

import (
	"testing"
	"time"
)

// TestTracer logs all trace events to a test's log.
type TestTracer struct{ T testing.TB }

var _ Tracer = TestTracer{}

func (tr TestTracer) Debug(t *Trace, msg string, args ...any) {
	tr.T.Log(append([]any{"mpmk-DEBUG:", t.String(), msg}, args...)...)
}

func (tr TestTracer) Info(t *Trace, msg string, args ...any) {
	tr.T.Log(append([]any{"mpmk-INFO:", t.String(), msg}, args...)...)
}

func (tr TestTracer) Warn(t *Trace, msg string, args ...any) {
	tr.T.Log(append([]any{"mpmk-WARN:", t.String(), msg}, args...)...)
}

func (tr TestTracer) StartRun(t *Trace, p *Project) {
	tr.T.Logf("mpmk-StartRun: %s %s", t, p)
}

func (tr TestTracer) DoneRun(t *Trace, p *Project, dt time.Duration, err error) {
	tr.T.Logf("mpmk-DoneRun: %s %s %s %v", t, p, dt, err)
}

func (tr TestTracer) StartStep(t *Trace, s Step) {
	tr.T.Logf("mpmk-StartStep: %s %s", t, s.Name())
}

func (tr TestTracer) StartTask(t *Trace, task *Task, files int) {
	tr.T.Logf("mpmk-StartTask: %s %s %d", t, task, files)
}

func (tr TestTracer) TaskUpToDate(t *Trace, task *Task) {
	tr.T.Logf("mpmk-TaskUpToDate: %s %s", t, task)
}

func (tr TestTracer) DoneTask(t *Trace, task *Task, files int, dt time.Duration) {
	tr.T.Logf("mpmk-DoneTask: %s %s %d %s", t, task, files, dt)
}

func (tr TestTracer) FailTask(t *Trace, task *Task, err error) {
	tr.T.Logf("mpmk-FailTask: %s %s %v", t, task, err)
}

func (tr TestTracer) StartWatch(t *Trace, w *Watch, dirs int) {
	tr.T.Logf("mpmk-StartWatch: %s %s %d", t, w.Name(), dirs)
}

func (tr TestTracer) WatchEvent(t *Trace, w *Watch, path string, tasks []*Task) {
	tr.T.Logf("mpmk-WatchEvent: %s %s %s %v", t, w.Name(), path, tasks)
}
