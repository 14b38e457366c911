package ngpack

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeTestFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func readTestFile(t *testing.T, f string) string {
	t.Helper()
	bs, err := os.ReadFile(f)
	if err != nil {
		t.Fatal(err)
	}
	return string(bs)
}

func fileExists(t *testing.T, f string) bool {
	t.Helper()
	_, err := os.Stat(f)
	if err == nil {
		return true
	}
	if os.IsNotExist(err) {
		return false
	}
	t.Fatal(err)
	return false
}

// fakeCompiler writes the outputs ngc would write for the test library.
type fakeCompiler struct {
	root string
	exit map[string]int // exit code by project file base name

	mu       sync.Mutex
	projects []string
	inlined  string // staged widget.ts content seen at compile time
}

func (c *fakeCompiler) Compile(project string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	base := filepath.Base(project)
	c.projects = append(c.projects, base)
	if bs, err := os.ReadFile(
		filepath.Join(filepath.Dir(project), "widget.ts"),
	); err == nil {
		c.inlined = string(bs)
	}
	if code := c.exit[base]; code != 0 {
		return code, nil
	}

	out := filepath.Join(c.root, "out-tsc")
	var files map[string]string
	if base == "tsconfig.es5.json" {
		files = map[string]string{
			"lib-es5/ng-widgets.js": "var es5;",
		}
	} else {
		files = map[string]string{
			"lib-es2015/ng-widgets.js":            "let es2015;",
			"lib-es2015/ng-widgets.d.ts":          "export * from './widget';",
			"lib-es2015/widget/widget.d.ts":       "export class Widget {}",
			"lib-es2015/ng-widgets.metadata.json": "{}",
		}
	}
	for name, content := range files {
		p := filepath.Join(out, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return 0, err
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			return 0, err
		}
	}
	return 0, nil
}

type fakePreprocessor struct {
	css string
	err error

	mu    sync.Mutex
	files []string
}

func (p *fakePreprocessor) Compile(in, out string, includes []string) error {
	p.mu.Lock()
	p.files = append(p.files, filepath.Base(in))
	p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	return os.WriteFile(out, []byte(p.css), 0644)
}

type fakeBundler struct {
	fail string // base name of the dest to fail

	mu      sync.Mutex
	configs map[string]*BundleConfig
}

func (b *fakeBundler) Bundle(c *BundleConfig) error {
	name := filepath.Base(c.Dest)
	b.mu.Lock()
	if b.configs == nil {
		b.configs = make(map[string]*BundleConfig)
	}
	b.configs[name] = c
	b.mu.Unlock()

	if name == b.fail {
		return errors.New("bundle failed")
	}
	bs, err := os.ReadFile(c.Entry)
	if err != nil {
		return err
	}
	return os.WriteFile(c.Dest, bs, 0644)
}

type testProject struct {
	root     string
	compiler *fakeCompiler
	styles   *fakePreprocessor
	bundler  *fakeBundler
}

func newTestProject(t *testing.T) *testProject {
	t.Helper()
	root := t.TempDir()
	writeTestFiles(t, root, map[string]string{
		"LICENSE":   "MIT",
		"README.md": "# widgets",

		"src/package.json":        `{"name": "ng-widgets", "version": "1.0.0"}`,
		"src/tsconfig.es5.json":   "{}",
		"src/tsconfig.build.json": "{}",
		"src/widget.ts": "@Component({\n" +
			"  moduleId: module.id,\n" +
			"  templateUrl: 'widget.html',\n" +
			"  styleUrls: ['widget.scss']\n" +
			"})",
		"src/widget.html":   "<div>\n  Hello\n</div>",
		"src/widget.scss":   "$c: red;\n.a { color: $c; }\n",
		"src/_vars.scss":    "$x: 1px;",
		"src/ng-widgets.ts": "export * from './widget';",
	})
	return &testProject{
		root:     root,
		compiler: &fakeCompiler{root: root},
		styles:   &fakePreprocessor{css: ".a{color:red}"},
		bundler:  new(fakeBundler),
	}
}

func (p *testProject) builder() *Builder {
	return NewBuilder(&Config{
		Root:  p.root,
		Style: "scss",
		Tools: &Tools{
			Compiler:          p.compiler,
			StylePreprocessor: p.styles,
			Bundler:           p.bundler,
		},
	})
}

func stageNames(results []*StageResult) []string {
	var names []string
	for _, r := range results {
		names = append(names, r.Stage)
	}
	return names
}

func TestBuild(t *testing.T) {
	p := newTestProject(t)
	results, err := p.builder().Build()
	if err != nil {
		t.Fatalf("build: %s", err)
	}

	want := []string{
		StageSources, StagePreprocess, StageInline,
		StageCompileES5, StageCompileES2015, StageCopyTypings,
		StageBundle, StagePackageFiles, StagePublish,
	}
	if diff := cmp.Diff(want, stageNames(results)); diff != "" {
		t.Errorf("stages: (-want +got)\n%s", diff)
	}
	for _, r := range results {
		if !r.OK || r.Err != nil {
			t.Errorf("stage %s failed: %v", r.Stage, r.Err)
		}
	}

	if diff := cmp.Diff(
		[]string{"widget.scss"}, p.styles.files,
	); diff != "" {
		t.Errorf("preprocessed: (-want +got)\n%s", diff)
	}

	wantInlined := "@Component({" +
		"template: \"<div> Hello </div>\",\n" +
		"  styles: [\".a{color:red}\"]\n" +
		"})"
	if p.compiler.inlined != wantInlined {
		t.Errorf(
			"compiled source: got %q, want %q",
			p.compiler.inlined, wantInlined,
		)
	}
	if diff := cmp.Diff(
		[]string{"tsconfig.es5.json", "tsconfig.build.json"},
		p.compiler.projects,
	); diff != "" {
		t.Errorf("compiled projects: (-want +got)\n%s", diff)
	}

	dist := filepath.Join(p.root, "dist")
	for name, content := range map[string]string{
		"ng-widgets.js":            "let es2015;",
		"ng-widgets.es5.js":        "var es5;",
		"ng-widgets.d.ts":          "export * from './widget';",
		"widget/widget.d.ts":       "export class Widget {}",
		"ng-widgets.metadata.json": "{}",
		"LICENSE":                  "MIT",
		"README.md":                "# widgets",
		"package.json":             `{"name": "ng-widgets", "version": "1.0.0"}`,
	} {
		got := readTestFile(t, filepath.Join(dist, filepath.FromSlash(name)))
		if got != content {
			t.Errorf("dist/%s: got %q, want %q", name, got, content)
		}
	}
	if fileExists(t, filepath.Join(p.root, "out-tsc", "dist")) {
		t.Error("staging dist left behind")
	}

	es5 := p.bundler.configs["ng-widgets.es5.js"]
	if es5 == nil {
		t.Fatal("es5 bundle not built")
	}
	if es5.ModuleName != "ngWidgets" {
		t.Errorf("module name: got %q", es5.ModuleName)
	}
	if es5.Format != "es" || !es5.SourceMap {
		t.Errorf("es5 bundle: format %q, source map %v", es5.Format, es5.SourceMap)
	}
	if diff := cmp.Diff([]string{"@angular/core"}, es5.External); diff != "" {
		t.Errorf("external: (-want +got)\n%s", diff)
	}
	if got := es5.Globals["@angular/core"]; got != "ng.core" {
		t.Errorf("global of @angular/core: got %q", got)
	}
}

func TestBuild_compileFailure(t *testing.T) {
	p := newTestProject(t)
	p.compiler.exit = map[string]int{"tsconfig.es5.json": 2}
	writeTestFiles(t, p.root, map[string]string{"dist/old.js": "old"})

	results, err := p.builder().Build()
	if err == nil {
		t.Fatal("want error, got nil")
	}
	if !strings.Contains(err.Error(), "Unable to compile ES5") {
		t.Errorf("error %q does not name the ES5 compilation", err)
	}

	want := []string{
		StageSources, StagePreprocess, StageInline, StageCompileES5,
	}
	if diff := cmp.Diff(want, stageNames(results)); diff != "" {
		t.Errorf("stages: (-want +got)\n%s", diff)
	}
	if last := results[len(results)-1]; last.OK || last.Err == nil {
		t.Errorf("last stage %s should fail", last.Stage)
	}

	if diff := cmp.Diff(
		[]string{"tsconfig.es5.json"}, p.compiler.projects,
	); diff != "" {
		t.Errorf("compiled projects: (-want +got)\n%s", diff)
	}
	if len(p.bundler.configs) != 0 {
		t.Errorf("bundler called %d times", len(p.bundler.configs))
	}
	if got := readTestFile(t, filepath.Join(p.root, "dist", "old.js")); got != "old" {
		t.Errorf("previous dist changed: %q", got)
	}
}

func TestBuild_inlineFailure(t *testing.T) {
	p := newTestProject(t)
	writeTestFiles(t, p.root, map[string]string{
		"src/broken.ts": "{templateUrl: 'missing.html'}",
	})

	results, err := p.builder().Build()
	if err == nil {
		t.Fatal("want error, got nil")
	}
	if last := results[len(results)-1].Stage; last != StageInline {
		t.Errorf("failed at %s, want %s", last, StageInline)
	}
	if len(p.compiler.projects) != 0 {
		t.Errorf("compiler called: %q", p.compiler.projects)
	}

	// The other component is still inlined.
	got := readTestFile(t, filepath.Join(p.root, "out-tsc", "lib", "widget.ts"))
	if strings.Contains(got, "templateUrl") {
		t.Errorf("widget.ts not inlined: %q", got)
	}
}

func TestBuild_preprocessFailure(t *testing.T) {
	p := newTestProject(t)
	p.styles.err = errors.New("bad scss")

	results, err := p.builder().Build()
	if err == nil {
		t.Fatal("want error, got nil")
	}
	if last := results[len(results)-1].Stage; last != StagePreprocess {
		t.Errorf("failed at %s, want %s", last, StagePreprocess)
	}
}

func TestBuild_bundleFailure(t *testing.T) {
	p := newTestProject(t)
	p.bundler.fail = "ng-widgets.es5.js"

	results, err := p.builder().Build()
	if err == nil {
		t.Fatal("want error, got nil")
	}
	if last := results[len(results)-1].Stage; last != StageBundle {
		t.Errorf("failed at %s, want %s", last, StageBundle)
	}
	if len(p.bundler.configs) != 2 {
		t.Errorf("got %d bundles started, want 2", len(p.bundler.configs))
	}
	if fileExists(t, filepath.Join(p.root, "dist")) {
		t.Error("dist published after a failed build")
	}
}

func TestBuild_badStyle(t *testing.T) {
	p := newTestProject(t)
	b := p.builder()
	b.config.Style = "less"
	if _, err := b.Build(); err == nil {
		t.Error("want error for unsupported style")
	}
}

func TestBuild_pack(t *testing.T) {
	p := newTestProject(t)
	b := p.builder()
	b.config.Pack = true

	results, err := b.Build()
	if err != nil {
		t.Fatalf("build: %s", err)
	}
	if last := results[len(results)-1].Stage; last != StagePack {
		t.Errorf("last stage %s, want %s", last, StagePack)
	}
	if !fileExists(t, filepath.Join(p.root, "ng-widgets.tgz")) {
		t.Error("package tarball missing")
	}
}

func TestBuild_journal(t *testing.T) {
	p := newTestProject(t)
	p.compiler.exit = map[string]int{"tsconfig.build.json": 1}
	b := p.builder()
	b.config.Journal = filepath.Join(t.TempDir(), "builds.db")

	if _, err := b.Build(); err == nil {
		t.Fatal("want error, got nil")
	}

	j, err := OpenJournal(b.config.Journal)
	if err != nil {
		t.Fatal(err)
	}
	defer j.Close()

	runs, err := j.LastRuns(5)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	run := runs[0]
	if run.OK {
		t.Error("failed run recorded as ok")
	}
	if n := len(run.Stages); n != 5 {
		t.Fatalf("got %d stages, want 5", n)
	}
	last := run.Stages[4]
	if last.Name != StageCompileES2015 || last.OK {
		t.Errorf("last stage: %+v", last)
	}
	if !strings.Contains(last.Err, "Unable to compile ES2015") {
		t.Errorf("last stage error: %q", last.Err)
	}
}
