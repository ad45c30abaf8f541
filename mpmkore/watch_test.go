package mpmkore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"git.fractalqb.de/fractalqb/testerr"
	"github.com/bits-and-blooms/bitset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type watchTracer struct {
	TestTracer
	ready chan int
}

func (tr watchTracer) StartWatch(t *Trace, w *Watch, dirs int) {
	tr.TestTracer.StartWatch(t, w, dirs)
	tr.ready <- dirs
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src", "sub"), 0777))
	old := filepath.Join(dir, "src", "old.txt")
	require.NoError(t, os.WriteFile(old, nil, 0666))
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	prj := NewProject(dir)
	op := new(recordOp)
	task := testerr.Shall1(prj.NewTask("copy", prefixSel("src"), op)).BeNil(t)
	task.Incremental = true
	task.succeeded(past.Add(time.Minute))

	other := new(recordOp)
	idle := testerr.Shall1(prj.NewTask("idle", prefixSel("other"), other)).BeNil(t)

	w := NewWatch("watch").Bind(task, nil).Bind(idle, nil)
	w.Wait = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tr := watchTracer{TestTracer{t}, make(chan int, 1)}
	run := testerr.Shall1(NewRunner(prj, NewTrace(ctx, tr), &Env{})).BeNil(t)
	done := make(chan error, 1)
	go func() { done <- run.Run(w) }()

	select {
	case dirs := <-tr.ready:
		assert.Equal(t, 2, dirs)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not start")
	}
	assert.Empty(t, op.calls(), "watch must not run tasks initially")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "sub", "new.txt"), []byte("x"), 0666))
	assert.Eventually(t, func() bool { return len(op.calls()) > 0 },
		5*time.Second,
		10*time.Millisecond,
	)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
	calls := op.calls()
	require.NotEmpty(t, calls)
	assert.Equal(t, []string{"src/sub/new.txt"}, calls[0])
	assert.Empty(t, other.calls())
}

func TestWatch_coalesce(t *testing.T) {
	prj := testProject(t, "src/a.txt")
	op := &recordOp{delay: 50 * time.Millisecond}
	task := testerr.Shall1(prj.NewTask("slow", prefixSel("src"), op)).BeNil(t)
	w := NewWatch("watch").Bind(task, nil)
	run := testRunner(t, prj)
	wr := watchRuns{
		runner: run,
		trace:  run.trace,
		dirty:  bitset.New(uint(len(w.bindings))),
		state:  make(map[*Task]*watchRunState),
	}
	for range 3 {
		wr.mark(w, "src/a.txt")
		wr.dispatch(w)
	}
	// one running, the others coalesced into a single follow-up
	assert.Eventually(t, func() bool { return len(op.calls()) == 2 },
		5*time.Second,
		10*time.Millisecond,
	)
	time.Sleep(100 * time.Millisecond)
	wr.close()
	assert.Len(t, op.calls(), 2)
}

func startWatch(t *testing.T, prj *Project, w *Watch) (stop func()) {
	ctx, cancel := context.WithCancel(context.Background())
	tr := watchTracer{TestTracer{t}, make(chan int, 1)}
	run := testerr.Shall1(NewRunner(prj, NewTrace(ctx, tr), &Env{})).BeNil(t)
	done := make(chan error, 1)
	go func() { done <- run.Run(w) }()
	select {
	case <-tr.ready:
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("watch did not start")
	}
	return func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("watch did not stop")
		}
	}
}

func processed(op *recordOp) map[string]bool {
	res := make(map[string]bool)
	for _, batch := range op.calls() {
		for _, f := range batch {
			res[f] = true
		}
	}
	return res
}

func TestWatch_newDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0777))
	staged := filepath.Join(dir, "staging", "newpage")
	require.NoError(t, os.MkdirAll(filepath.Join(staged, "part"), 0777))
	require.NoError(t, os.WriteFile(filepath.Join(staged, "newpage.wxml"), []byte("<view/>"), 0666))
	require.NoError(t, os.WriteFile(filepath.Join(staged, "part", "part.wxml"), []byte("<text/>"), 0666))

	prj := NewProject(dir)
	op := new(recordOp)
	task := testerr.Shall1(prj.NewTask("wxml", prefixSel("src"), op)).BeNil(t)
	task.Incremental = true
	task.succeeded(time.Now().Add(-time.Hour))
	w := NewWatch("watch").Bind(task, nil)
	w.Wait = 20 * time.Millisecond
	stop := startWatch(t, prj, w)
	defer stop()

	// a directory moved in brings its files without events of their own
	require.NoError(t, os.Rename(staged, filepath.Join(dir, "src", "newpage")))
	assert.Eventually(t, func() bool {
		p := processed(op)
		return p["src/newpage/newpage.wxml"] && p["src/newpage/part/part.wxml"]
	}, 5*time.Second, 10*time.Millisecond)

	// files in a fresh sub directory
	fresh := filepath.Join(dir, "src", "fresh", "deep")
	require.NoError(t, os.MkdirAll(fresh, 0777))
	require.NoError(t, os.WriteFile(filepath.Join(fresh, "x.wxml"), []byte("<view/>"), 0666))
	assert.Eventually(t, func() bool { return processed(op)["src/fresh/deep/x.wxml"] },
		5*time.Second,
		10*time.Millisecond,
	)
}

func TestWatch_removeAndRename(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0777))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "trash"), 0777))
	past := time.Now().Add(-time.Hour)
	for _, f := range []string{"a.txt", "b.txt"} {
		p := filepath.Join(dir, "src", f)
		require.NoError(t, os.WriteFile(p, nil, 0666))
		require.NoError(t, os.Chtimes(p, past, past))
	}

	prj := NewProject(dir)
	op := new(recordOp)
	task := testerr.Shall1(prj.NewTask("copy", prefixSel("src"), op)).BeNil(t)
	task.Incremental = true
	task.succeeded(past.Add(time.Minute))
	w := NewWatch("watch").Bind(task, nil)
	w.Wait = 20 * time.Millisecond
	stop := startWatch(t, prj, w)
	defer stop()

	runs := task.Runs()
	require.NoError(t, os.Remove(filepath.Join(dir, "src", "a.txt")))
	assert.Eventually(t, func() bool { return task.Runs() > runs },
		5*time.Second,
		10*time.Millisecond,
	)

	runs = task.Runs()
	require.NoError(t, os.Rename(
		filepath.Join(dir, "src", "b.txt"),
		filepath.Join(dir, "trash", "b.txt"),
	))
	assert.Eventually(t, func() bool { return task.Runs() > runs },
		5*time.Second,
		10*time.Millisecond,
	)
	// nothing left to process, the runs had empty batches
	assert.Empty(t, op.calls())
}
