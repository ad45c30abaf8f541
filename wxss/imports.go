// Package wxss turns SCSS sources into mini-program style sheets.
//
// Imports of shared variables and mixins are inlined by the style compiler.
// All other imports are hidden from the compiler in deferred-import markers
// and restored as imports of the compiled style sheets afterwards.
package wxss

import (
	"bytes"
	"strings"
)

// Import is an @import directive found in a style source.
type Import struct {
	Text  string // the complete directive, e.g. @import "a.scss";
	Path  string
	Quote byte
	Start int // byte offset of the directive in the source
	End   int
}

// PathStart returns the offset of the path within the source.
func (imp Import) PathStart() int { return imp.Start + strings.IndexByte(imp.Text, imp.Quote) + 1 }

// Deferred is a deferred-import marker /** <directive> **/ found in a style
// sheet. MarkStart and MarkEnd span the complete marker.
type Deferred struct {
	Import
	MarkStart, MarkEnd int
}

// DefaultAllow is the default allow-list of import path fragments.
var DefaultAllow = AllowList{"/scss/", "/font/"}

// AllowList holds the path fragments of imports the style compiler inlines.
type AllowList []string

func (al AllowList) Allows(path string) bool {
	for _, f := range al {
		if strings.Contains(path, f) {
			return true
		}
	}
	return false
}

const (
	markOpen  = "/**"
	markClose = "**/"
)

// ScanImports returns the live @import directives of src in source order.
// Directives in comments, including deferred-import markers, and in strings
// are not live.
func ScanImports(src []byte) (imps []Import) {
	scan(src, func(imp Import) { imps = append(imps, imp) }, nil)
	return imps
}

// ScanDeferred returns the deferred-import markers of src in source order.
func ScanDeferred(src []byte) (defs []Deferred) {
	scan(src, nil, func(d Deferred) { defs = append(defs, d) })
	return defs
}

func scan(src []byte, onImport func(Import), onDeferred func(Deferred)) {
	for i := 0; i < len(src); {
		switch c := src[i]; {
		case c == '"' || c == '\'':
			i = skipString(src, i)
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			end := bytes.Index(src[i+2:], []byte("*/"))
			if end < 0 {
				return
			}
			end += i + 4
			if onDeferred != nil {
				if d, ok := parseMarker(src, i, end); ok {
					onDeferred(d)
				}
			}
			i = end
		case c == '/' && i+1 < len(src) && src[i+1] == '/' && lineCommentAt(src, i):
			if nl := bytes.IndexByte(src[i:], '\n'); nl < 0 {
				return
			} else {
				i += nl + 1
			}
		case c == '@':
			if imp, ok := parseImport(src, i); ok {
				if onImport != nil {
					onImport(imp)
				}
				i = imp.End
			} else {
				i++
			}
		default:
			i++
		}
	}
}

// lineCommentAt tells '//' that starts a comment from the one in unquoted
// URLs like url(http://…).
func lineCommentAt(src []byte, i int) bool {
	if i == 0 {
		return true
	}
	switch src[i-1] {
	case ' ', '\t', '\n', '\r', ';', '{', '}':
		return true
	}
	return false
}

func skipString(src []byte, i int) int {
	q := src[i]
	for i++; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case '\n':
			return i + 1
		case q:
			return i + 1
		}
	}
	return i
}

// parseImport parses @import <ws>+ <quote> path <quote>; at src[at:].
func parseImport(src []byte, at int) (imp Import, ok bool) {
	const kw = "@import"
	if !bytes.HasPrefix(src[at:], []byte(kw)) {
		return imp, false
	}
	i := at + len(kw)
	ws := i
	for i < len(src) && isSpace(src[i]) {
		i++
	}
	if i == ws || i >= len(src) {
		return imp, false
	}
	q := src[i]
	if q != '"' && q != '\'' {
		return imp, false
	}
	ps := i + 1
	pe := ps
	for pe < len(src) && src[pe] != q && src[pe] != '\n' {
		pe++
	}
	if pe == ps || pe+1 >= len(src) || src[pe] != q || src[pe+1] != ';' {
		return imp, false
	}
	end := pe + 2
	return Import{
		Text:  string(src[at:end]),
		Path:  string(src[ps:pe]),
		Quote: q,
		Start: at,
		End:   end,
	}, true
}

// parseMarker checks whether the block comment src[start:end] is a
// deferred-import marker.
func parseMarker(src []byte, start, end int) (d Deferred, ok bool) {
	if end-start < len(markOpen)+len(markClose) ||
		!bytes.HasPrefix(src[start:], []byte(markOpen)) ||
		!bytes.HasSuffix(src[:end], []byte(markClose)) {
		return d, false
	}
	is := start + len(markOpen)
	ie := end - len(markClose)
	for is < ie && isSpace(src[is]) {
		is++
	}
	for ie > is && isSpace(src[ie-1]) {
		ie--
	}
	imp, ok := parseImport(src[:ie], is)
	if !ok || imp.End != ie {
		return d, false
	}
	return Deferred{Import: imp, MarkStart: start, MarkEnd: end}, true
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f':
		return true
	}
	return false
}
