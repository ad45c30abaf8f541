// Package scaffold creates new page and component directories from
// templates.
package scaffold

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/otiai10/copy"
)

type Kind string

const (
	Page      Kind = "pages"
	Component Kind = "components"
)

// DefaultSource names the template set below the source root.
const DefaultSource = "template"

var ErrUsage = errors.New("usage: newfile [-s <source>] (-p <page> | -c <component>)")

// Request describes a new page or component. If both Page and Component are
// set, the component is created.
type Request struct {
	Source    string
	Page      string
	Component string
}

func (r Request) target() (Kind, string, error) {
	switch {
	case r.Component != "":
		return Component, r.Component, nil
	case r.Page != "":
		return Page, r.Page, nil
	}
	return "", "", ErrUsage
}

// Generator copies templates within the source root SrcDir.
type Generator struct {
	SrcDir string
	Log    *slog.Logger
}

// Paths returns the template directory and the target directory of r.
func (g Generator) Paths(r Request) (from, to string, err error) {
	kind, name, err := r.target()
	if err != nil {
		return "", "", err
	}
	if name != filepath.Base(name) || name == "." || name == ".." {
		return "", "", fmt.Errorf("illegal %s name '%s'", kind, name)
	}
	src := r.Source
	if src == "" {
		src = DefaultSource
	}
	if src == DefaultSource {
		from = filepath.Join(g.SrcDir, src, string(kind))
	} else {
		from = filepath.Join(g.SrcDir, string(kind), src)
	}
	to = filepath.Join(g.SrcDir, string(kind), name)
	return from, to, nil
}

// Create copies the template content for r into its new directory. Existing
// target directories are not touched.
func (g Generator) Create(r Request) (string, error) {
	from, to, err := g.Paths(r)
	if err != nil {
		return "", err
	}
	if st, err := os.Stat(from); err != nil {
		return "", fmt.Errorf("template: %w", err)
	} else if !st.IsDir() {
		return "", fmt.Errorf("template '%s' is not a directory", from)
	}
	if _, err := os.Stat(to); err == nil {
		return "", fmt.Errorf("'%s': %w", to, fs.ErrExist)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}
	g.log().Debug("scaffold: copy `template` to `target`",
		slog.String(`template`, from),
		slog.String(`target`, to),
	)
	if err := copy.Copy(from, to); err != nil {
		return "", fmt.Errorf("scaffold %s: %w", to, err)
	}
	return to, nil
}

func (g Generator) log() *slog.Logger {
	if g.Log == nil {
		return slog.Default()
	}
	return g.Log
}
