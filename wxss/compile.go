package wxss

import (
	"context"
	"fmt"
	"strings"

	"git.fractalqb.de/fractalqb/mpmk/mkfs"
	"git.fractalqb.de/fractalqb/mpmk/mpmkore"
)

// DefaultTargets are the platform targets for vendor prefixing.
var DefaultTargets = []string{"iOS >= 8", "Android >= 4.1"}

const (
	SourceExt = ".scss"
	TargetExt = ".wxss"
)

type Compiler interface {
	// Compile compiles the style source src read from the project relative
	// path into plain CSS.
	Compile(ctx context.Context, env *mpmkore.Env, path string, src []byte) ([]byte, error)
}

type CompilerFunc func(ctx context.Context, env *mpmkore.Env, path string, src []byte) ([]byte, error)

func (f CompilerFunc) Compile(ctx context.Context, env *mpmkore.Env, path string, src []byte) ([]byte, error) {
	return f(ctx, env, path, src)
}

type Prefixer interface {
	// Prefix adds vendor prefixes to css as needed by the platform targets.
	Prefix(ctx context.Context, env *mpmkore.Env, css []byte, targets []string) ([]byte, error)
}

type PrefixerFunc func(ctx context.Context, env *mpmkore.Env, css []byte, targets []string) ([]byte, error)

func (f PrefixerFunc) Prefix(ctx context.Context, env *mpmkore.Env, css []byte, targets []string) ([]byte, error) {
	return f(ctx, env, css, targets)
}

// NoPrefix is a Prefixer that returns the CSS unchanged.
var NoPrefix = PrefixerFunc(func(_ context.Context, _ *mpmkore.Env, css []byte, _ []string) ([]byte, error) {
	return css, nil
})

// CompileError is a failure reported by the style compiler for one file.
type CompileError struct {
	Path string
	Msg  string
	Err  error
}

func (e *CompileError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("compile %s: %s", e.Path, e.Err)
	}
	return fmt.Sprintf("compile %s: %s", e.Path, e.Msg)
}

func (e *CompileError) Unwrap() error { return e.Err }

// Pipeline compiles style sources into style sheets. Imports not allowed by
// Allow bypass the compiler and reappear in the output with their extension
// changed from SrcExt to DstExt.
type Pipeline struct {
	Allow    AllowList
	Compiler Compiler
	Prefixer Prefixer
	Targets  []string
	SrcExt   string
	DstExt   string
}

func NewPipeline(c Compiler, p Prefixer) *Pipeline {
	if p == nil {
		p = NoPrefix
	}
	return &Pipeline{
		Allow:    DefaultAllow,
		Compiler: c,
		Prefixer: p,
		Targets:  DefaultTargets,
		SrcExt:   SourceExt,
		DstExt:   TargetExt,
	}
}

// Transform runs the pipeline for the style source src at path: filter
// imports, compile, add vendor prefixes and restore deferred imports.
func (pl *Pipeline) Transform(ctx context.Context, env *mpmkore.Env, path string, src []byte) ([]byte, error) {
	css, err := pl.Compiler.Compile(ctx, env, path, Filter(src, pl.Allow))
	if err != nil {
		return nil, asCompileError(path, err)
	}
	if pl.Prefixer != nil {
		if css, err = pl.Prefixer.Prefix(ctx, env, css, pl.Targets); err != nil {
			return nil, fmt.Errorf("prefix %s: %w", path, err)
		}
	}
	return Restore(css, pl.SrcExt, pl.DstExt), nil
}

// Op returns the task operation that writes the pipeline output of each
// batch file to dest with extension DstExt.
func (pl *Pipeline) Op(dest mkfs.Dest) mkfs.Transform {
	return mkfs.Transform{
		Dest: dest,
		Ext:  pl.DstExt,
		Desc: fmt.Sprintf("compile styles %s -> %s", dest.Strip, dest.Dir),
		Func: func(tr *mpmkore.Trace, env *mpmkore.Env, path string, data []byte) ([]byte, error) {
			return pl.Transform(tr.Ctx(), env, path, data)
		},
	}
}

func asCompileError(path string, err error) error {
	if cerr, ok := err.(*CompileError); ok {
		if cerr.Path == "" {
			cerr.Path = path
		}
		return cerr
	}
	return &CompileError{Path: path, Msg: strings.TrimSpace(err.Error()), Err: err}
}
