package mkfs

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// File is a project relative, slash separated file path.
type File string

func (f File) Path() string { return string(f) }

func (f File) Moved(strip, dest string) (File, error) {
	path, err := movedPath(f.Path(), strip, dest)
	if err != nil {
		return File(""), err
	}
	return File(path), nil
}

func (f File) WithExt(ext string) File {
	p := f.Path()
	if ext == "" {
		ext = path.Ext(p)
		if ext == "" {
			return f
		}
		return File(p[:len(p)-len(ext)])
	}
	if ext[0] != '.' {
		ext = "." + ext
	}
	fExt := path.Ext(p)
	if fExt == "" {
		return File(p + ext)
	}
	return File(p[:len(p)-len(fExt)] + ext)
}

func movedPath(p, strip, dest string) (string, error) {
	p = filepath.ToSlash(p)
	if strip != "" {
		rel, err := filepath.Rel(filepath.FromSlash(strip), filepath.FromSlash(p))
		if err != nil {
			return "", err
		}
		rel = filepath.ToSlash(rel)
		if rel == ".." || strings.HasPrefix(rel, "../") {
			return "", fmt.Errorf("'%s' is not below '%s'", p, strip)
		}
		p = rel
	}
	return path.Join(filepath.ToSlash(dest), p), nil
}
