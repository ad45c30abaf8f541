package mkfs

import (
	"fmt"

	"git.fractalqb.de/fractalqb/mpmk/mpmkore"
	"github.com/spf13/afero"
)

// Clean [mpmkore.Operation] removes Dir with all its content. A missing Dir
// is not an error.
type Clean struct {
	Dir    string
	DryRun bool
}

var _ mpmkore.Operation = Clean{}

func (c Clean) Describe(*mpmkore.Task) string { return "FS remove " + c.Dir }

func (c Clean) Do(tr *mpmkore.Trace, b *mpmkore.Batch) error {
	fsys := b.Project().FS
	if ok, err := afero.Exists(fsys, c.Dir); err != nil {
		return err
	} else if !ok {
		tr.Debug("clean: nothing to remove in `dir`", `dir`, c.Dir)
		return nil
	}
	if c.DryRun {
		tr.Info("clean: dry-run, would remove `dir`", `dir`, c.Dir)
		return nil
	}
	tr.Debug("clean: remove `dir`", `dir`, c.Dir)
	if err := fsys.RemoveAll(c.Dir); err != nil {
		return fmt.Errorf("clean %s: %w", c.Dir, err)
	}
	return nil
}
