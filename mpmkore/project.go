package mpmkore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

type RunID = uint64

// Project is the registry of named tasks over one source tree. All task file
// access goes through FS with paths relative to Dir.
type Project struct {
	Dir string
	FS  afero.Fs

	sync.Mutex

	tasks   map[string]*Task
	lastRun RunID
}

// NewProject creates a project for the OS directory dir. An empty dir means
// the current working directory.
func NewProject(dir string) *Project {
	if dir == "" {
		dir, _ = os.Getwd()
	} else if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return NewProjectFS(dir, afero.NewBasePathFs(afero.NewOsFs(), dir))
}

func NewProjectFS(dir string, fsys afero.Fs) *Project {
	return &Project{
		Dir:   dir,
		FS:    fsys,
		tasks: make(map[string]*Task),
	}
}

// NewTask registers a new task under name. An already registered task with
// the same name is replaced in the registry. Handles to the replaced task stay
// valid but are no longer found by name.
func (prj *Project) NewTask(name string, src Selector, op Operation) (*Task, error) {
	switch {
	case name == "":
		return nil, errors.New("new task without name")
	case op == nil:
		return nil, fmt.Errorf("new task '%s' without operation", name)
	}
	prj.Lock()
	defer prj.Unlock()
	t := &Task{
		Sources: src,
		Op:      op,
		name:    name,
		prj:     prj,
	}
	prj.tasks[name] = t
	return t, nil
}

// Task returns the task registered under name or nil.
func (prj *Project) Task(name string) *Task {
	prj.Lock()
	defer prj.Unlock()
	return prj.tasks[name]
}

// Tasks returns all registered tasks sorted by name.
func (prj *Project) Tasks() []*Task {
	prj.Lock()
	defer prj.Unlock()
	ts := make([]*Task, 0, len(prj.tasks))
	for _, t := range prj.tasks {
		ts = append(ts, t)
	}
	slices.SortFunc(ts, func(a, b *Task) int { return strings.Compare(a.name, b.name) })
	return ts
}

func (prj *Project) String() string { return filepath.Base(prj.Dir) }

// AbsPath returns the OS path of the project relative path rel.
func (prj *Project) AbsPath(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(prj.Dir, filepath.FromSlash(rel))
}

// RelPath returns the slash separated project relative path of the OS path p.
func (prj *Project) RelPath(p string) (string, error) {
	if !filepath.IsAbs(p) {
		return filepath.ToSlash(filepath.Clean(p)), nil
	}
	rel, err := filepath.Rel(prj.Dir, p)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// LockRun locks the project and starts a new run. Call Unlock when the run
// is finished.
func (prj *Project) LockRun() RunID {
	prj.Lock()
	prj.lastRun++
	return prj.lastRun
}

func (prj *Project) LastRun() RunID {
	prj.Lock()
	defer prj.Unlock()
	return prj.lastRun
}
