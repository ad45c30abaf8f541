package mkfs

import (
	"context"
	"io/fs"
	"path/filepath"
	"testing"
	"time"

	"git.fractalqb.de/fractalqb/mpmk/mpmkore"
	"git.fractalqb.de/fractalqb/testerr"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProject(t *testing.T, files ...string) *mpmkore.Project {
	fsys := afero.NewMemMapFs()
	for _, f := range files {
		require.NoError(t, afero.WriteFile(fsys, f, []byte(f), 0666))
	}
	return mpmkore.NewProjectFS(t.Name(), fsys)
}

func testRun(t *testing.T, prj *mpmkore.Project, steps ...mpmkore.Step) error {
	run := testerr.Shall1(mpmkore.NewRunner(prj,
		mpmkore.NewTrace(context.Background(), mpmkore.TestTracer{T: t}),
		&mpmkore.Env{},
	)).BeNil(t)
	return run.Run(steps...)
}

func TestFile_WithExt(t *testing.T) {
	assert.Equal(t, File("a/b.wxss"), File("a/b.scss").WithExt(".wxss"))
	assert.Equal(t, File("a/b.wxss"), File("a/b").WithExt("wxss"))
	assert.Equal(t, File("a.d/b"), File("a.d/b.scss").WithExt(""))
	assert.Equal(t, File("a.d/b"), File("a.d/b").WithExt(""))
}

func TestFile_Moved(t *testing.T) {
	f := testerr.Shall1(File("src/pages/a/a.js").Moved("src", "dist")).BeNil(t)
	assert.Equal(t, File("dist/pages/a/a.js"), f)
	f = testerr.Shall1(File("src/app.js").Moved("", "dist")).BeNil(t)
	assert.Equal(t, File("dist/src/app.js"), f)
	_, err := File("lib/x.js").Moved("src", "dist")
	assert.ErrorContains(t, err, "is not below")
}

func TestGlob_Match(t *testing.T) {
	js := Patterns("src/**/*.js", "!src/**/env/*.js")
	assert.True(t, js.Match("src/app.js"))
	assert.True(t, js.Match("src/pages/a/a.js"))
	assert.False(t, js.Match("src/env/dev.js"))
	assert.False(t, js.Match("src/app.json"))
	assert.False(t, js.Match("lib/app.js"))

	img := Patterns("src/**/images/**/*.{png,jpg,gif,ico}")
	assert.True(t, img.Match("src/images/a.png"))
	assert.True(t, img.Match("src/pages/x/images/icons/b.ico"))
	assert.False(t, img.Match("src/images/a.svg"))
	assert.Equal(t, "src/**/*.js !src/**/env/*.js", js.String())
}

func TestGlob_Roots(t *testing.T) {
	g := Patterns("src/**/*.js", "src/env/dev.js", "lib/*.js", "!src/x/**")
	assert.Equal(t, []string{"lib", "src"}, g.Roots())
	assert.Equal(t, []string{"."}, Patterns("*.js", "a/*.js").Roots())
}

func TestGlob_Select(t *testing.T) {
	prj := testProject(t,
		"src/app.js",
		"src/env/dev.js",
		"src/pages/a/a.js",
		"src/pages/a/a.wxml",
	)
	g := Patterns("src/**/*.js", "!src/**/env/*.js")
	files := testerr.Shall1(g.Select(prj.FS, time.Time{})).BeNil(t)
	assert.Equal(t, []string{"src/app.js", "src/pages/a/a.js"}, files)

	since := time.Now().Add(time.Minute)
	files = testerr.Shall1(g.Select(prj.FS, since)).BeNil(t)
	assert.Empty(t, files)

	later := since.Add(time.Minute)
	require.NoError(t, prj.FS.Chtimes("src/pages/a/a.js", later, later))
	files = testerr.Shall1(g.Select(prj.FS, since)).BeNil(t)
	assert.Equal(t, []string{"src/pages/a/a.js"}, files)

	g.Filter = Not(NameMatch("app.*"))
	files = testerr.Shall1(g.Select(prj.FS, time.Time{})).BeNil(t)
	assert.Equal(t, []string{"src/pages/a/a.js"}, files)

	files = testerr.Shall1(Patterns("missing/**/*.js").Select(prj.FS, time.Time{})).BeNil(t)
	assert.Empty(t, files)
}

func TestFilters(t *testing.T) {
	prj := testProject(t, "d/f.txt", "d/.#f.txt", "d/#f.txt#")
	ok := func(f Filter, p string) bool {
		info := testerr.Shall1(prj.FS.Stat(p)).BeNil(t)
		res, err := f.Ok(p, fs.FileInfoToDirEntry(info))
		require.NoError(t, err)
		return res
	}
	assert.True(t, ok(NameMatch("*.txt"), "d/f.txt"))
	assert.False(t, ok(NameMatch("*.js"), "d/f.txt"))
	assert.True(t, ok(Any{NameMatch("*.js"), NameMatch("f.*")}, "d/f.txt"))
	assert.False(t, ok(Not(Any{NameMatch("*.js"), NameMatch("*.txt")}), "d/f.txt"))

	assert.False(t, ok(EditorFiles, "d/f.txt"))
	assert.True(t, ok(EditorFiles, "d/.#f.txt"))
	assert.True(t, ok(EditorFiles, "d/#f.txt#"))
}

// vanishingFs reports gone as not existing although its directory still
// lists it, like a file removed between readdir and lstat.
type vanishingFs struct {
	afero.Fs
	gone string
}

func (v vanishingFs) Stat(name string) (fs.FileInfo, error) {
	if filepath.ToSlash(name) == v.gone {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
	}
	return v.Fs.Stat(name)
}

func TestGlob_Select_vanishedFile(t *testing.T) {
	prj := testProject(t, "src/a.js", "src/4913.js", "src/b.js")
	fsys := vanishingFs{Fs: prj.FS, gone: "src/4913.js"}
	files, err := Patterns("src/**/*.js").Select(fsys, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/a.js", "src/b.js"}, files)
}

func TestCopy(t *testing.T) {
	prj := testProject(t, "src/app.wxml", "src/pages/a/a.wxml", "src/pages/a/a.js")
	task := testerr.Shall1(prj.NewTask("wxml",
		Patterns("src/**/*.wxml"),
		Copy{Dest: Dest{Strip: "src", Dir: "dist"}},
	)).BeNil(t)
	require.NoError(t, testRun(t, prj, task))
	for _, f := range []string{"app.wxml", "pages/a/a.wxml"} {
		data := testerr.Shall1(afero.ReadFile(prj.FS, "dist/"+f)).BeNil(t)
		assert.Equal(t, "src/"+f, string(data))
	}
	ok, _ := afero.Exists(prj.FS, "dist/pages/a/a.js")
	assert.False(t, ok)
}

func TestCopyAs(t *testing.T) {
	prj := testProject(t, "src/env/dev.js", "src/env/prod.js")
	task := testerr.Shall1(prj.NewTask("prodEnv", nil,
		CopyAs{From: "src/env/prod.js", To: "dist/env.js"},
	)).BeNil(t)
	require.NoError(t, testRun(t, prj, task))
	data := testerr.Shall1(afero.ReadFile(prj.FS, "dist/env.js")).BeNil(t)
	assert.Equal(t, "src/env/prod.js", string(data))

	missing := testerr.Shall1(prj.NewTask("testEnv", nil,
		CopyAs{From: "src/env/tes.js", To: "dist/env.js"},
	)).BeNil(t)
	err := testRun(t, prj, missing)
	var ferr *FileError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, "src/env/tes.js", ferr.Path)
}

func TestTransform(t *testing.T) {
	prj := testProject(t, "src/a.scss", "src/b.scss")
	op := Transform{
		Dest: Dest{Strip: "src", Dir: "dist"},
		Ext:  ".wxss",
		Func: func(_ *mpmkore.Trace, _ *mpmkore.Env, path string, data []byte) ([]byte, error) {
			return append([]byte("/* "+path+" */"), data...), nil
		},
	}
	task := testerr.Shall1(prj.NewTask("wxss", Patterns("src/*.scss"), op)).BeNil(t)
	require.NoError(t, testRun(t, prj, task))
	data := testerr.Shall1(afero.ReadFile(prj.FS, "dist/b.wxss")).BeNil(t)
	assert.Equal(t, "/* src/b.scss */src/b.scss", string(data))
	assert.Equal(t, "transform src -> dist", op.Describe(task))
}

func TestClean(t *testing.T) {
	prj := testProject(t, "dist/a.js", "dist/sub/b.js", "src/a.js")

	dry := testerr.Shall1(prj.NewTask("clean", nil, Clean{Dir: "dist", DryRun: true})).BeNil(t)
	require.NoError(t, testRun(t, prj, dry))
	ok, _ := afero.DirExists(prj.FS, "dist")
	assert.True(t, ok)

	clean := testerr.Shall1(prj.NewTask("clean", nil, Clean{Dir: "dist"})).BeNil(t)
	require.NoError(t, testRun(t, prj, clean))
	ok, _ = afero.Exists(prj.FS, "dist")
	assert.False(t, ok)
	ok, _ = afero.Exists(prj.FS, "src/a.js")
	assert.True(t, ok)

	// nothing left to remove
	require.NoError(t, testRun(t, prj, clean))
}
