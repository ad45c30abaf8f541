package mpmkore

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/bits-and-blooms/bitset"
	"github.com/fsnotify/fsnotify"
	"github.com/romdo/go-debounce"
	"github.com/spf13/afero"
)

const (
	DefaultWatchWait    = 100 * time.Millisecond
	DefaultWatchMaxWait = time.Second
)

// Watch is a standing step that re-runs tasks when files matching their
// bound selectors change. Watch does not run the tasks initially. It runs
// until the context of the trace is cancelled.
//
// Changes that arrive while a task runs are coalesced into exactly one
// follow-up run of that task.
type Watch struct {
	Wait, MaxWait time.Duration

	name     string
	bindings []watchBinding
}

type watchBinding struct {
	sel  Selector
	task *Task
}

var _ Step = (*Watch)(nil)

func NewWatch(name string) *Watch { return &Watch{name: name} }

func (w *Watch) Name() string { return w.name }

// Bind lets changes to files selected by sel trigger task. A nil sel binds
// the task's own Sources.
func (w *Watch) Bind(task *Task, sel Selector) *Watch {
	if sel == nil {
		sel = task.Sources
	}
	if sel == nil {
		panic(fmt.Errorf("watch '%s': task '%s' has no sources to watch", w.name, task.name))
	}
	w.bindings = append(w.bindings, watchBinding{sel: sel, task: task})
	return w
}

// Tasks returns the bound tasks in binding order.
func (w *Watch) Tasks() []*Task {
	ts := make([]*Task, len(w.bindings))
	for i, b := range w.bindings {
		ts[i] = b.task
	}
	return ts
}

func (w *Watch) Run(r *Runner, tr *Trace) error {
	tr = tr.pushStep(w)
	ctx := tr.Ctx()
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch '%s': %w", w.name, err)
	}
	defer fsw.Close()

	dirs := 0
	for _, root := range w.roots() {
		n, err := w.addTree(tr, r.prj, fsw, root, nil)
		if err != nil {
			return fmt.Errorf("watch '%s': %w", w.name, err)
		}
		dirs += n
	}
	tr.startWatch(w, dirs)

	wr := watchRuns{
		runner: r,
		trace:  tr,
		dirty:  bitset.New(uint(len(w.bindings))),
		state:  make(map[*Task]*watchRunState),
	}
	trigger, cancel := debounce.NewWithMaxWait(w.wait(), w.maxWait(), func() {
		wr.dispatch(w)
	})
	defer func() {
		cancel()
		wr.close()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			rel, err := r.prj.RelPath(ev.Name)
			if err != nil {
				tr.Warn("watch: cannot relate `path` to project", `path`, ev.Name)
				continue
			}
			if ev.Has(fsnotify.Create) {
				if ok, _ := afero.DirExists(r.prj.FS, rel); ok {
					// Files moved or copied in with the directory had no
					// watch yet and send no events of their own.
					marked := false
					_, err := w.addTree(tr, r.prj, fsw, rel, func(file string) {
						if tasks := wr.mark(w, file); len(tasks) > 0 {
							tr.watchEvent(w, file, tasks)
							marked = true
						}
					})
					if err != nil {
						tr.Warn("watch: cannot add `dir`: `error`", `dir`, rel, `error`, err)
					}
					if marked {
						trigger()
					}
					continue
				}
			}
			if tasks := wr.mark(w, rel); len(tasks) > 0 {
				tr.watchEvent(w, rel, tasks)
				trigger()
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			tr.Warn("watch `error`", `error`, err)
		}
	}
}

func (w *Watch) wait() time.Duration {
	if w.Wait <= 0 {
		return DefaultWatchWait
	}
	return w.Wait
}

func (w *Watch) maxWait() time.Duration {
	if w.MaxWait <= 0 {
		return DefaultWatchMaxWait
	}
	return w.MaxWait
}

func (w *Watch) roots() []string {
	var res []string
	seen := make(map[string]bool)
	for _, b := range w.bindings {
		for _, r := range b.sel.Roots() {
			if !seen[r] {
				seen[r] = true
				res = append(res, r)
			}
		}
	}
	return res
}

// addTree watches root and all directories below it. Regular files found on
// the way are passed to onFile if it is not nil.
func (w *Watch) addTree(tr *Trace, prj *Project, fsw *fsnotify.Watcher, root string, onFile func(string)) (n int, err error) {
	if ok, err := afero.DirExists(prj.FS, root); err != nil {
		return 0, err
	} else if !ok {
		tr.Warn("watch: skipping missing `root`", `root`, root)
		return 0, nil
	}
	err = afero.Walk(prj.FS, root, func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !info.IsDir() {
			if onFile != nil && info.Mode().IsRegular() {
				onFile(filepath.ToSlash(p))
			}
			return nil
		}
		if err := fsw.Add(prj.AbsPath(filepath.ToSlash(p))); err != nil {
			return err
		}
		n++
		return nil
	})
	return n, err
}

type watchRuns struct {
	runner *Runner
	trace  *Trace

	mu     sync.Mutex
	dirty  *bitset.BitSet
	state  map[*Task]*watchRunState
	closed bool
	wg     sync.WaitGroup
}

type watchRunState struct {
	running, again bool
}

func (wr *watchRuns) mark(w *Watch, path string) (tasks []*Task) {
	wr.mu.Lock()
	defer wr.mu.Unlock()
	for i, b := range w.bindings {
		if b.sel.Match(path) {
			wr.dirty.Set(uint(i))
			tasks = append(tasks, b.task)
		}
	}
	return tasks
}

func (wr *watchRuns) dispatch(w *Watch) {
	wr.mu.Lock()
	defer wr.mu.Unlock()
	if wr.closed {
		return
	}
	for i, ok := wr.dirty.NextSet(0); ok; i, ok = wr.dirty.NextSet(i + 1) {
		wr.start(w.bindings[i].task)
	}
	wr.dirty.ClearAll()
}

// start must be called with wr.mu held.
func (wr *watchRuns) start(t *Task) {
	st := wr.state[t]
	if st == nil {
		st = new(watchRunState)
		wr.state[t] = st
	}
	if st.running {
		st.again = true
		return
	}
	st.running = true
	wr.wg.Add(1)
	go func() {
		defer wr.wg.Done()
		for {
			if err := wr.runner.runTask(wr.trace, t); err != nil {
				wr.trace.Debug("watch: `task` failed, keep watching", `task`, t.name)
			}
			wr.mu.Lock()
			if !st.again || wr.closed {
				st.running, st.again = false, false
				wr.mu.Unlock()
				return
			}
			st.again = false
			wr.mu.Unlock()
		}
	}()
}

func (wr *watchRuns) close() {
	wr.mu.Lock()
	wr.closed = true
	wr.mu.Unlock()
	wr.wg.Wait()
}
