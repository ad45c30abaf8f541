package mkfs

import (
	"io"
	"io/fs"
	"os"
	"path"

	"github.com/spf13/afero"
)

// Dest maps source files below Strip to the same relative path below Dir.
type Dest struct {
	Strip     string
	Dir       string
	MkDirMode fs.FileMode
	FileMode  fs.FileMode
}

// Target returns the destination path of src. A non-empty ext replaces the
// extension of src.
func (d Dest) Target(src, ext string) (string, error) {
	f, err := File(src).Moved(d.Strip, d.Dir)
	if err != nil {
		return "", err
	}
	if ext != "" {
		f = f.WithExt(ext)
	}
	return f.Path(), nil
}

func (d Dest) WriteFile(fsys afero.Fs, dst string, data []byte) error {
	if err := d.provideDir(fsys, path.Dir(dst)); err != nil {
		return err
	}
	return afero.WriteFile(fsys, dst, data, d.fileMode())
}

func (d Dest) copyFile(fsys afero.Fs, dst, src string) error {
	if src == dst {
		return nil
	}
	if err := d.provideDir(fsys, path.Dir(dst)); err != nil {
		return err
	}
	r, err := fsys.Open(src)
	if err != nil {
		return err
	}
	defer r.Close()
	w, err := fsys.OpenFile(dst,
		os.O_CREATE|os.O_TRUNC|os.O_WRONLY,
		d.fileMode(),
	)
	if err != nil {
		return err
	}
	if _, err = io.Copy(w, r); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func (d Dest) provideDir(fsys afero.Fs, dir string) error {
	mode := d.MkDirMode
	if mode == 0 {
		mode = 0777
	}
	return fsys.MkdirAll(dir, mode)
}

func (d Dest) fileMode() fs.FileMode {
	if d.FileMode == 0 {
		return 0666
	}
	return d.FileMode
}
