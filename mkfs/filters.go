package mkfs

import (
	"io/fs"

	"github.com/bmatcuk/doublestar/v4"
)

// Filter decides on entries a Glob has already matched by pattern.
type Filter interface {
	Ok(path string, entry fs.DirEntry) (bool, error)
}

type FilterFunc func(string, fs.DirEntry) (bool, error)

func (ff FilterFunc) Ok(p string, e fs.DirEntry) (bool, error) {
	return ff(p, e)
}

// NameMatch matches the base name of entries against a doublestar pattern.
type NameMatch string

func (p NameMatch) Ok(_ string, e fs.DirEntry) (bool, error) {
	return doublestar.Match(string(p), e.Name())
}

func Not(f Filter) Filter {
	return FilterFunc(func(p string, e fs.DirEntry) (bool, error) {
		ok, err := f.Ok(p, e)
		return !ok, err
	})
}

type Any []Filter

func (fs Any) Ok(p string, e fs.DirEntry) (bool, error) {
	for _, f := range fs {
		if ok, err := f.Ok(p, e); err != nil {
			return ok, err
		} else if ok {
			return true, nil
		}
	}
	return false, nil
}

// EditorFiles matches the lock and autosave files editors put next to the
// file being edited, e.g. .#app.js or #app.js#.
var EditorFiles = Any{NameMatch(".#*"), NameMatch("#*#")}
