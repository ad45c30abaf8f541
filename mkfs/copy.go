package mkfs

import (
	"fmt"
	"log/slog"

	"git.fractalqb.de/fractalqb/mpmk/mpmkore"
)

// Copy [mpmkore.Operation] copies each file of a batch to its target in Dest.
type Copy struct {
	Dest Dest
}

var _ mpmkore.Operation = Copy{}

func (cp Copy) Describe(*mpmkore.Task) string {
	return fmt.Sprintf("FS copy %s -> %s", cp.Dest.Strip, cp.Dest.Dir)
}

func (cp Copy) Do(tr *mpmkore.Trace, b *mpmkore.Batch) error {
	fsys := b.Project().FS
	for _, src := range b.Files {
		if err := tr.Ctx().Err(); err != nil {
			return err
		}
		dst, err := cp.Dest.Target(src, "")
		if err != nil {
			return &FileError{Path: src, Err: err}
		}
		tr.Debug("FS copy: `src` -> `dst`",
			slog.String(`src`, src),
			slog.String(`dst`, dst),
		)
		if err := cp.Dest.copyFile(fsys, dst, src); err != nil {
			return &FileError{Path: src, Err: err}
		}
	}
	return nil
}

// CopyAs [mpmkore.Operation] copies the single file From to To. It ignores
// the batch files.
type CopyAs struct {
	From, To string
	Dest     Dest
}

var _ mpmkore.Operation = CopyAs{}

func (cp CopyAs) Describe(*mpmkore.Task) string {
	return fmt.Sprintf("FS copy %s as %s", cp.From, cp.To)
}

func (cp CopyAs) Do(tr *mpmkore.Trace, b *mpmkore.Batch) error {
	tr.Debug("FS copy: `src` -> `dst`",
		slog.String(`src`, cp.From),
		slog.String(`dst`, cp.To),
	)
	if err := cp.Dest.copyFile(b.Project().FS, cp.To, cp.From); err != nil {
		return &FileError{Path: cp.From, Err: err}
	}
	return nil
}
