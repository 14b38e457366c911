package ngpack

import (
	"path"
	"strings"
	"unicode"
)

// BundleConfig configures one bundle produced by the bundler.
type BundleConfig struct {
	Entry      string // Compiled entry module.
	Dest       string // Output bundle file.
	Format     string // Output module format, such as "es" or "umd".
	ModuleName string // Global name for umd/iife bundles.
	SourceMap  bool

	External []string          // Modules left as imports.
	Globals  map[string]string // Module to global variable name.
	Plugins  []string
}

const defaultBundleFormat = "es"

// camelCase converts a package name like "ng-widgets" into "ngWidgets".
func camelCase(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var b strings.Builder
	for i, w := range words {
		rs := []rune(w)
		if i == 0 {
			rs[0] = unicode.ToLower(rs[0])
		} else {
			rs[0] = unicode.ToUpper(rs[0])
		}
		b.WriteString(string(rs))
	}
	return b.String()
}

func copyStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	ret := make(map[string]string)
	for k, v := range m {
		ret[k] = v
	}
	return ret
}

func baseBundleConfig(e *env) *BundleConfig {
	p := e.project
	return &BundleConfig{
		ModuleName: camelCase(e.libName),
		SourceMap:  p.sourceMap(),
		External:   p.External,
		Globals:    p.Globals,
		Plugins:    p.Plugins,
	}
}

func (c *BundleConfig) with(entry, dest, format string) *BundleConfig {
	ret := *c
	ret.External = copyStrings(c.External)
	ret.Globals = copyMap(c.Globals)
	ret.Plugins = copyStrings(c.Plugins)
	ret.Entry = entry
	ret.Dest = dest
	ret.Format = format
	if ret.Format == "" {
		ret.Format = defaultBundleFormat
	}
	return &ret
}

// bundleConfigs returns the ES5 and ES2015 bundle configs.
func bundleConfigs(e *env) []*BundleConfig {
	base := baseBundleConfig(e)
	name := path.Base(e.libName)
	return []*BundleConfig{
		base.with(
			joinPath(e.es5Dir, []string{name + ".js"}),
			e.dist(name+".es5.js"),
			e.project.ES5Format,
		),
		base.with(
			joinPath(e.es2015Dir, []string{name + ".js"}),
			e.dist(name+".js"),
			e.project.ES2015Format,
		),
	}
}
