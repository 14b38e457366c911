package ngpack

import (
	"os"
	"path"
	"path/filepath"
)

// env holds the directory layout of one build. It is derived from the
// project root and passed explicitly to every stage.
type env struct {
	rootDir    string
	srcDir     string
	compileDir string
	tmpDir     string // Staged sources, preprocessed and inlined.
	es5Dir     string
	es2015Dir  string
	distStage  string // dist being assembled
	distDir    string

	libName string
	project *Project
	tools   *toolchain
}

func newEnv(root string) *env {
	compile := filepath.Join(root, "out-tsc")
	return &env{
		rootDir:    root,
		srcDir:     filepath.Join(root, "src"),
		compileDir: compile,
		tmpDir:     filepath.Join(compile, "lib"),
		es5Dir:     filepath.Join(compile, "lib-es5"),
		es2015Dir:  filepath.Join(compile, "lib-es2015"),
		distStage:  filepath.Join(compile, "dist"),
		distDir:    filepath.Join(root, "dist"),
	}
}

func joinPath(dir string, ps []string) string {
	if len(ps) == 0 {
		return dir
	}
	p := path.Join(ps...)
	return filepath.Join(dir, filepath.FromSlash(p))
}

func (e *env) root(ps ...string) string { return joinPath(e.rootDir, ps) }
func (e *env) src(ps ...string) string  { return joinPath(e.srcDir, ps) }
func (e *env) tmp(ps ...string) string  { return joinPath(e.tmpDir, ps) }

func (e *env) dist(ps ...string) string { return joinPath(e.distStage, ps) }

// prepareFile creates all missing parent directories of file p.
func prepareFile(p string) (string, error) {
	if err := prepareDir(filepath.Dir(p)); err != nil {
		return "", err
	}
	return p, nil
}

// prepareDir creates dir and all its missing parents. It is a no-op when
// dir already exists.
func prepareDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
