package wxss

import (
	"slices"
	"strings"
)

type edit struct {
	start, end int
	text       string
}

// apply replaces the spans of non-overlapping edits back-to-front so that
// offsets of earlier edits stay valid.
func apply(src []byte, edits []edit) []byte {
	if len(edits) == 0 {
		return src
	}
	slices.SortFunc(edits, func(a, b edit) int { return b.start - a.start })
	res := slices.Clone(src)
	for _, e := range edits {
		res = slices.Replace(res, e.start, e.end, []byte(e.text)...)
	}
	return res
}

// Filter wraps each live import of src whose path is not allowed by allow
// into a deferred-import marker. Imports already inside markers are left
// alone, so Filter is idempotent.
func Filter(src []byte, allow AllowList) []byte {
	var edits []edit
	for _, imp := range ScanImports(src) {
		if allow.Allows(imp.Path) {
			continue
		}
		edits = append(edits, edit{
			start: imp.Start,
			end:   imp.End,
			text:  Defer(imp.Text),
		})
	}
	return apply(src, edits)
}

// Defer returns the deferred-import marker for directive.
func Defer(directive string) string {
	return markOpen + " " + directive + " " + markClose
}

// Restore replaces each deferred-import marker of src with its directive. If
// the import path ends with srcExt, that suffix is replaced with dstExt.
func Restore(src []byte, srcExt, dstExt string) []byte {
	var edits []edit
	for _, d := range ScanDeferred(src) {
		text := d.Text
		if p, ok := strings.CutSuffix(d.Path, srcExt); ok && srcExt != "" {
			ps := d.PathStart() - d.Start
			text = text[:ps] + p + dstExt + text[ps+len(d.Path):]
		}
		edits = append(edits, edit{
			start: d.MarkStart,
			end:   d.MarkEnd,
			text:  text,
		})
	}
	return apply(src, edits)
}
