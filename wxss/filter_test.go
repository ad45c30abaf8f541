package wxss

import (
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Example_filterRestore() {
	src := []byte(`@import "../scss/vars.scss";
@import "./card.scss";
.a { color: red; }
`)
	filtered := Filter(src, DefaultAllow)
	fmt.Print(string(filtered))
	fmt.Print(string(Restore(filtered, ".scss", ".wxss")))
	// Output:
	// @import "../scss/vars.scss";
	// /** @import "./card.scss"; **/
	// .a { color: red; }
	// @import "../scss/vars.scss";
	// @import "./card.wxss";
	// .a { color: red; }
}

func importPaths(imps []Import) (ps []string) {
	for _, imp := range imps {
		ps = append(ps, imp.Path)
	}
	return ps
}

func TestScanImports(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		paths []string
	}{
		{"double quotes", `@import "a.scss";`, []string{"a.scss"}},
		{"single quotes", `@import 'a.scss';`, []string{"a.scss"}},
		{"newline as space", "@import\n\"a.scss\";", []string{"a.scss"}},
		{"no space", `@import"a.scss";`, nil},
		{"mixed quotes", `@import "a.scss';`, nil},
		{"missing semicolon", `@import "a.scss"`, nil},
		{"space before semicolon", `@import "a.scss" ;`, nil},
		{"upper case", `@IMPORT "a.scss";`, nil},
		{"empty path", `@import "";`, nil},
		{"block comment", `/* @import "a.scss"; */`, nil},
		{"marker", `/** @import "a.scss"; **/`, nil},
		{"line comment", "// @import \"a.scss\";\n@import \"b.scss\";", []string{"b.scss"}},
		{"url is no comment", "a { b: url(http://x); }\n@import \"b.scss\";", []string{"b.scss"}},
		{"in string", `a { content: "@import 'x.scss';"; }`, nil},
		{"several", "@import \"a\";@import 'b';\n@import \"c\";", []string{"a", "b", "c"}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			imps := ScanImports([]byte(test.src))
			assert.Equal(t, test.paths, importPaths(imps))
			for _, imp := range imps {
				assert.Equal(t, imp.Text, test.src[imp.Start:imp.End])
				assert.Equal(t, imp.Path, test.src[imp.PathStart():imp.PathStart()+len(imp.Path)])
			}
		})
	}
}

func TestFilter(t *testing.T) {
	t.Run("allowed import untouched", func(t *testing.T) {
		src := `@import "../scss/vars.scss";`
		assert.Equal(t, src, string(Filter([]byte(src), DefaultAllow)))
	})
	t.Run("other import deferred", func(t *testing.T) {
		src := `@import "./card.scss";`
		assert.Equal(t, `/** @import "./card.scss"; **/`, string(Filter([]byte(src), DefaultAllow)))
	})
	t.Run("empty allow-list defers all", func(t *testing.T) {
		src := `@import "../scss/vars.scss";@import "x.scss";`
		assert.Equal(t,
			`/** @import "../scss/vars.scss"; **//** @import "x.scss"; **/`,
			string(Filter([]byte(src), nil)),
		)
	})
	t.Run("idempotent", func(t *testing.T) {
		src := []byte("@import \"./a.scss\";\n@import '../font/icons.scss';\n.x{}\n@import \"b.scss\";")
		once := Filter(src, DefaultAllow)
		assert.Equal(t, string(once), string(Filter(once, DefaultAllow)))
	})
	t.Run("text without imports", func(t *testing.T) {
		src := []byte(".a { color: red; }")
		assert.Equal(t, src, Filter(src, DefaultAllow))
	})
	t.Run("only allowed imports stay live", func(t *testing.T) {
		src := []byte(`@import "../scss/a.scss";
@import "b.scss";
@import '/font/c.scss';
@import "d/scss.scss";`)
		live := importPaths(ScanImports(Filter(src, DefaultAllow)))
		var want []string
		for _, p := range importPaths(ScanImports(src)) {
			if DefaultAllow.Allows(p) {
				want = append(want, p)
			}
		}
		assert.Equal(t, want, live)
		assert.Equal(t, []string{"../scss/a.scss", "/font/c.scss"}, live)
	})
}

func TestRestore(t *testing.T) {
	tests := []struct {
		name, src, want string
	}{
		{"remap",
			`/** @import "./card.scss"; **/`,
			`@import "./card.wxss";`},
		{"no marker spaces",
			`/**@import "./card.scss";**/`,
			`@import "./card.wxss";`},
		{"multi-line marker",
			"/**\n  @import './card.scss';\n**/",
			`@import './card.wxss';`},
		{"suffix only",
			`/** @import "a.scss.scss/b.scss"; **/`,
			`@import "a.scss.scss/b.wxss";`},
		{"infix untouched",
			`/** @import "my.scss.theme"; **/`,
			`@import "my.scss.theme";`},
		{"plain comment untouched",
			`/** just a comment **/`,
			`/** just a comment **/`},
		{"live import untouched",
			`@import "a.scss";`,
			`@import "a.scss";`},
		{"several",
			".x{}\n/** @import \"a.scss\"; **/\n.y{}\n/** @import 'b.css'; **/\n",
			".x{}\n@import \"a.wxss\";\n.y{}\n@import 'b.css';\n"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, string(Restore([]byte(test.src), ".scss", ".wxss")))
		})
	}
}

func TestFilterRestore_roundTrip(t *testing.T) {
	src := []byte(`@import "../scss/vars.scss";
@import "./card.scss";
@import 'list/item.scss';
.page { display: flex; }
`)
	out := Restore(Filter(src, DefaultAllow), ".scss", ".wxss")
	paths := importPaths(ScanImports(out))
	slices.Sort(paths)
	assert.Equal(t, []string{"../scss/vars.scss", "./card.wxss", "list/item.wxss"}, paths)
	assert.Empty(t, ScanDeferred(out))
}
