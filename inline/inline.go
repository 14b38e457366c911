// Copyright (C) 2022  Shanhu Tech Inc.
//
// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the
// Free Software Foundation, either version 3 of the License, or (at your
// option) any later version.
//
// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU Affero General Public License
// for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package inline rewrites component source files so that their external
// template and style references are embedded as string literals.
package inline

import (
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"shanhu.io/misc/errcode"
	"shanhu.io/text/lexing"
)

var (
	templateURLRE = regexp.MustCompile(`templateUrl:\s*'([^']+?\.html)'`)
	styleURLsRE   = regexp.MustCompile(`styleUrls:\s*(\[[\s\S]*?\])`)
	moduleIDRE    = regexp.MustCompile(`\s*moduleId:\s*module\.id\s*,?\s*`)
	lineBreakRE   = regexp.MustCompile(`([\n\r]\s*)+`)
)

// SourceExt is the extension of the source files that get inlined.
const SourceExt = ".ts"

const defaultCacheSize = 256

// Options configures an Inliner.
type Options struct {
	// StyleExt is the style preprocessor extension, such as "scss". Style
	// urls with this extension are read from their compiled ".css"
	// sibling. Empty or "css" reads urls as they are.
	StyleExt string

	// CacheSize is the number of resource files kept in memory.
	CacheSize int
}

// Inliner inlines templates and styles into source files.
type Inliner struct {
	styleExt string
	cache    *lru.Cache[string, string]
}

// New creates a new inliner.
func New(opts *Options) (*Inliner, error) {
	if opts == nil {
		opts = new(Options)
	}
	size := opts.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, errcode.Annotate(err, "create resource cache")
	}

	ext := strings.TrimPrefix(opts.StyleExt, ".")
	if ext == "css" {
		ext = ""
	}
	return &Inliner{
		styleExt: ext,
		cache:    cache,
	}, nil
}

func listSourceFiles(dir string) ([]string, error) {
	var files []string
	walk := func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), SourceExt) {
			files = append(files, p)
		}
		return nil
	}
	if err := filepath.WalkDir(dir, walk); err != nil {
		return nil, err
	}
	return files, nil
}

// InlineDir inlines all source files under dir. Files are processed
// concurrently; a failing file does not stop the others. It returns one
// error per failed file, or nil when every file succeeded.
func (i *Inliner) InlineDir(dir string) []*lexing.Error {
	files, err := listSourceFiles(dir)
	if err != nil {
		return lexing.SingleErr(errcode.Annotate(err, "list source files"))
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []*lexing.Error
	)
	for _, f := range files {
		wg.Add(1)
		go func(f string) {
			defer wg.Done()
			if err := i.InlineFile(f); err != nil {
				log.Printf("inline %s: %s", f, err)
				mu.Lock()
				errs = append(errs, fileError(f, err))
				mu.Unlock()
			}
		}(f)
	}
	wg.Wait()

	sort.Slice(errs, func(a, b int) bool {
		return errs[a].Pos.File < errs[b].Pos.File
	})
	return errs
}

func fileError(f string, err error) *lexing.Error {
	if e, ok := err.(*lexing.Error); ok {
		if e.Pos == nil {
			e.Pos = new(lexing.Pos)
		}
		e.Pos.File = f
		return e
	}
	return &lexing.Error{
		Pos: &lexing.Pos{File: f},
		Err: err,
	}
}

// InlineFile inlines the resources of a single source file and writes
// it back in place. Resource urls are relative to the file's directory.
func (i *Inliner) InlineFile(f string) error {
	info, err := os.Stat(f)
	if err != nil {
		return errcode.Annotate(err, "stat source")
	}
	bs, err := os.ReadFile(f)
	if err != nil {
		return errcode.Annotate(err, "read source")
	}

	dir := filepath.Dir(f)
	resolve := func(u string) string {
		return filepath.Join(dir, filepath.FromSlash(u))
	}
	content := string(bs)
	inlined, err := i.InlineString(content, resolve)
	if err != nil {
		return err
	}
	if inlined == content {
		return nil
	}
	if err := os.WriteFile(f, []byte(inlined), info.Mode().Perm()); err != nil {
		return errcode.Annotate(err, "write source")
	}
	return nil
}

// InlineString applies template inlining, style inlining and module id
// removal to content, in that order. resolve maps a resource url to the
// file that holds it.
func (i *Inliner) InlineString(
	content string, resolve func(u string) string,
) (string, error) {
	content, err := i.inlineTemplate(content, resolve)
	if err != nil {
		return "", err
	}
	content, err = i.inlineStyles(content, resolve)
	if err != nil {
		return "", err
	}
	return removeModuleID(content), nil
}

func (i *Inliner) inlineTemplate(
	content string, resolve func(u string) string,
) (string, error) {
	return replaceAll(templateURLRE, content, func(
		s string, loc []int,
	) (string, error) {
		u := s[loc[2]:loc[3]]
		tmpl, err := i.readResource(resolve(u))
		if err != nil {
			return "", errcode.Annotatef(err, "template %q", u)
		}
		tmpl = lineBreakRE.ReplaceAllLiteralString(tmpl, " ")
		return `template: "` + escapeQuotes(tmpl) + `"`, nil
	})
}

func (i *Inliner) inlineStyles(
	content string, resolve func(u string) string,
) (string, error) {
	return replaceAll(styleURLsRE, content, func(
		s string, loc []int,
	) (string, error) {
		urls, err := parseStyleURLs(s[loc[2]:loc[3]])
		if err != nil {
			if le, ok := err.(*listError); ok {
				return "", &lexing.Error{
					Pos: position(s, loc[2]+le.off),
					Err: errcode.InvalidArgf("bad styleUrls: %s", le.msg),
				}
			}
			return "", err
		}

		var styles []string
		for _, u := range urls {
			style, err := i.readResource(i.styleFile(resolve(u)))
			if err != nil {
				return "", errcode.Annotatef(err, "style %q", u)
			}
			style = lineBreakRE.ReplaceAllLiteralString(style, "")
			styles = append(styles, `"`+escapeQuotes(style)+`"`)
		}
		return "styles: [" + strings.Join(styles, ",\n") + "]", nil
	})
}

func removeModuleID(content string) string {
	return moduleIDRE.ReplaceAllLiteralString(content, "")
}

func (i *Inliner) styleFile(f string) string {
	if i.styleExt == "" {
		return f
	}
	ext := "." + i.styleExt
	if !strings.HasSuffix(f, ext) {
		return f
	}
	return strings.TrimSuffix(f, ext) + ".css"
}

func (i *Inliner) readResource(f string) (string, error) {
	abs, err := filepath.Abs(f)
	if err != nil {
		return "", err
	}
	if s, ok := i.cache.Get(abs); ok {
		return s, nil
	}
	bs, err := os.ReadFile(abs)
	if err != nil {
		return "", err
	}
	s := string(bs)
	i.cache.Add(abs, s)
	return s, nil
}

func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

// replaceAll replaces every match of re in s with the result of f. f
// receives s and the submatch index pair slice of the match.
func replaceAll(
	re *regexp.Regexp, s string,
	f func(s string, loc []int) (string, error),
) (string, error) {
	locs := re.FindAllStringSubmatchIndex(s, -1)
	if len(locs) == 0 {
		return s, nil
	}

	var b strings.Builder
	last := 0
	for _, loc := range locs {
		repl, err := f(s, loc)
		if err != nil {
			return "", err
		}
		b.WriteString(s[last:loc[0]])
		b.WriteString(repl)
		last = loc[1]
	}
	b.WriteString(s[last:])
	return b.String(), nil
}

func position(s string, off int) *lexing.Pos {
	before := s[:off]
	line := strings.Count(before, "\n") + 1
	col := off - strings.LastIndex(before, "\n")
	return &lexing.Pos{Line: line, Col: col}
}
