package mkfs

import (
	"errors"
	"io/fs"
	"path"
	"slices"
	"strings"
	"time"

	"git.fractalqb.de/fractalqb/mpmk/mpmkore"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

// Glob selects project files by doublestar patterns. A file is selected if it
// matches any of the Include patterns and none of the Exclude patterns.
type Glob struct {
	Include []string
	Exclude []string
	Filter  Filter
}

var _ mpmkore.Selector = Glob{}

// Patterns builds a Glob from gulp style patterns where a leading '!' marks an
// exclude pattern.
func Patterns(ps ...string) Glob {
	var g Glob
	for _, p := range ps {
		if x, ok := strings.CutPrefix(p, "!"); ok {
			g.Exclude = append(g.Exclude, x)
		} else {
			g.Include = append(g.Include, p)
		}
	}
	return g
}

func (g Glob) String() string {
	var sb strings.Builder
	for i, p := range g.Include {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(p)
	}
	for _, p := range g.Exclude {
		sb.WriteString(" !")
		sb.WriteString(p)
	}
	return sb.String()
}

func (g Glob) Match(p string) bool {
	p = path.Clean(strings.ReplaceAll(p, "\\", "/"))
	in := false
	for _, pat := range g.Include {
		if ok, _ := doublestar.Match(pat, p); ok {
			in = true
			break
		}
	}
	if !in {
		return false
	}
	for _, pat := range g.Exclude {
		if ok, _ := doublestar.Match(pat, p); ok {
			return false
		}
	}
	return true
}

// Roots returns the static directory prefixes of the include patterns. Roots
// nested in other roots are dropped.
func (g Glob) Roots() []string {
	var roots []string
	for _, pat := range g.Include {
		base, _ := doublestar.SplitPattern(pat)
		if base == "" {
			base = "."
		}
		roots = append(roots, path.Clean(base))
	}
	slices.Sort(roots)
	roots = slices.Compact(roots)
	res := roots[:0]
NEXT_ROOT:
	for _, r := range roots {
		for _, o := range res {
			if o == "." || strings.HasPrefix(r, o+"/") {
				continue NEXT_ROOT
			}
		}
		res = append(res, r)
	}
	return res
}

// Select walks the roots of g in fsys and returns the sorted paths of all
// matching regular files modified after since. A zero since selects all
// matching files. Missing roots select nothing.
func (g Glob) Select(fsys afero.Fs, since time.Time) ([]string, error) {
	var res []string
	for _, root := range g.Roots() {
		if ok, err := afero.DirExists(fsys, root); err != nil {
			return res, err
		} else if !ok {
			continue
		}
		err := afero.Walk(fsys, root, func(p string, info fs.FileInfo, err error) error {
			if err != nil {
				if p != root && errors.Is(err, fs.ErrNotExist) {
					return nil // removed while walking
				}
				return err
			}
			if info.IsDir() {
				return nil
			}
			p = path.Clean(strings.ReplaceAll(p, "\\", "/"))
			if !g.Match(p) {
				return nil
			}
			if !since.IsZero() && !info.ModTime().After(since) {
				return nil
			}
			if g.Filter != nil {
				ok, err := g.Filter.Ok(p, fs.FileInfoToDirEntry(info))
				if err != nil || !ok {
					return err
				}
			}
			res = append(res, p)
			return nil
		})
		if err != nil {
			return res, err
		}
	}
	slices.Sort(res)
	return res, nil
}
