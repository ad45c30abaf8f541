package mpmkore

import (
	"sync"
	"time"

	"github.com/spf13/afero"
)

// Selector selects the source files of a task.
type Selector interface {
	// Select returns the project relative paths of all selected files that
	// were modified after since. A zero since selects all files.
	Select(fsys afero.Fs, since time.Time) ([]string, error)
	// Match reports whether the project relative path would be selected
	// regardless of its modification time.
	Match(path string) bool
	// Roots returns the project relative directories that contain all
	// selectable files.
	Roots() []string
}

type Operation interface {
	Describe(t *Task) string
	Do(tr *Trace, b *Batch) error
}

// Batch is the set of source files a task run has to process.
type Batch struct {
	Task  *Task
	Files []string
	Since time.Time
	Env   *Env
}

func (b *Batch) Project() *Project { return b.Task.prj }

// Task is a named unit of work over the files chosen by Sources. Incremental
// tasks only get the files modified since their last successful run.
type Task struct {
	Sources     Selector
	Op          Operation
	Incremental bool

	name string
	prj  *Project

	run     sync.Mutex // serializes runs
	mu      sync.Mutex
	lastRun time.Time
	runs    int
}

var _ Step = (*Task)(nil)

func (t *Task) Name() string { return t.name }

func (t *Task) String() string { return t.name }

func (t *Task) Project() *Project { return t.prj }

func (t *Task) Describe() string { return t.Op.Describe(t) }

// LastRun returns the start time of the last successful run. The zero time
// means the task did not yet succeed.
func (t *Task) LastRun() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastRun
}

// Runs returns the number of successful runs.
func (t *Task) Runs() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.runs
}

func (t *Task) Run(r *Runner, tr *Trace) error { return r.runTask(tr, t) }

func (t *Task) succeeded(start time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastRun = start
	t.runs++
}

type OpFunc func(tr *Trace, b *Batch) error

func (OpFunc) Describe(*Task) string { return "func" }

func (f OpFunc) Do(tr *Trace, b *Batch) error { return f(tr, b) }
