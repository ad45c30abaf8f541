package mkfs

import (
	"fmt"
	"log/slog"

	"git.fractalqb.de/fractalqb/mpmk/mpmkore"
	"github.com/spf13/afero"
)

// FileError reports the source file an operation failed on.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string { return fmt.Sprintf("%s: %s", e.Path, e.Err) }

func (e *FileError) Unwrap() error { return e.Err }

// TransformFunc computes the content of the target file from the content of
// the source file at path.
type TransformFunc func(tr *mpmkore.Trace, env *mpmkore.Env, path string, data []byte) ([]byte, error)

// Transform [mpmkore.Operation] writes each batch file through Func to its
// target in Dest. A non-empty Ext replaces the extension of the targets.
// Transform stops at the first failing file. Targets already written stay.
type Transform struct {
	Dest Dest
	Ext  string
	Desc string
	Func TransformFunc
}

var _ mpmkore.Operation = Transform{}

func (op Transform) Describe(*mpmkore.Task) string {
	if op.Desc == "" {
		return fmt.Sprintf("transform %s -> %s", op.Dest.Strip, op.Dest.Dir)
	}
	return op.Desc
}

func (op Transform) Do(tr *mpmkore.Trace, b *mpmkore.Batch) error {
	fsys := b.Project().FS
	for _, src := range b.Files {
		if err := tr.Ctx().Err(); err != nil {
			return err
		}
		dst, err := op.Dest.Target(src, op.Ext)
		if err != nil {
			return &FileError{Path: src, Err: err}
		}
		data, err := afero.ReadFile(fsys, src)
		if err != nil {
			return &FileError{Path: src, Err: err}
		}
		if op.Func != nil {
			if data, err = op.Func(tr, b.Env, src, data); err != nil {
				return &FileError{Path: src, Err: err}
			}
		}
		tr.Debug("transform: `src` -> `dst`",
			slog.String(`src`, src),
			slog.String(`dst`, dst),
		)
		if err = op.Dest.WriteFile(fsys, dst, data); err != nil {
			return &FileError{Path: src, Err: err}
		}
	}
	return nil
}
