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

package ngpack

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"shanhu.io/misc/errcode"
)

// Compiler compiles a TypeScript project.
type Compiler interface {
	// Compile compiles the project described by the given tsconfig file
	// and returns the compiler's exit code.
	Compile(project string) (int, error)
}

// StylePreprocessor compiles a style source file into css.
type StylePreprocessor interface {
	// Compile compiles file in and writes the compressed stylesheet to
	// out. Imports are searched in includes.
	Compile(in, out string, includes []string) error
}

// Bundler bundles compiled modules into a single file.
type Bundler interface {
	Bundle(c *BundleConfig) error
}

type toolchain struct {
	compiler   Compiler
	preprocess StylePreprocessor
	bundler    Bundler
}

// Environment variables that override the tool binaries.
const (
	envNgc    = "NGPACK_NGC"
	envSass   = "NGPACK_SASS"
	envRollup = "NGPACK_ROLLUP"
)

type toolBins struct {
	ngc    string
	sass   string
	rollup string
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func defaultToolBins() *toolBins {
	return &toolBins{
		ngc:    envOr(envNgc, "ngc"),
		sass:   envOr(envSass, "sass"),
		rollup: envOr(envRollup, "rollup"),
	}
}

// runner runs external tool commands, either on the host or in a
// container.
type runner interface {
	// path maps a host file path to the path the tool sees.
	path(p string) (string, error)

	// run runs args in host directory dir and returns the exit code.
	run(dir string, args []string) (int, error)
}

type localRunner struct{}

func (localRunner) path(p string) (string, error) { return p, nil }

func (localRunner) run(dir string, args []string) (int, error) {
	return callCmd(dir, args[0], args[1:]...)
}

func newToolchain(r runner, bins *toolBins) *toolchain {
	return &toolchain{
		compiler:   &ngc{runner: r, bin: bins.ngc},
		preprocess: &sass{runner: r, bin: bins.sass},
		bundler:    &rollup{runner: r, bin: bins.rollup},
	}
}

type ngc struct {
	runner runner
	bin    string
}

func (c *ngc) Compile(project string) (int, error) {
	p, err := c.runner.path(project)
	if err != nil {
		return 0, err
	}
	return c.runner.run(filepath.Dir(project), []string{c.bin, "-p", p})
}

type sass struct {
	runner runner
	bin    string
}

func (s *sass) Compile(in, out string, includes []string) error {
	args := []string{s.bin, "--style=compressed", "--no-source-map"}
	for _, inc := range includes {
		p, err := s.runner.path(inc)
		if err != nil {
			return err
		}
		args = append(args, "--load-path="+p)
	}

	inPath, err := s.runner.path(in)
	if err != nil {
		return err
	}
	outPath, err := s.runner.path(out)
	if err != nil {
		return err
	}
	args = append(args, inPath, outPath)

	if err := execError(s.runner.run(filepath.Dir(in), args)); err != nil {
		return errcode.Annotatef(err, "compile %s", in)
	}
	return nil
}

type rollup struct {
	runner runner
	bin    string
}

func sortedKeys(m map[string]string) []string {
	var keys []string
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (r *rollup) args(c *BundleConfig) ([]string, error) {
	entry, err := r.runner.path(c.Entry)
	if err != nil {
		return nil, err
	}
	dest, err := r.runner.path(c.Dest)
	if err != nil {
		return nil, err
	}

	args := []string{
		r.bin,
		"-i", entry,
		"-o", dest,
		"-f", c.Format,
	}
	if c.ModuleName != "" {
		args = append(args, "-n", c.ModuleName)
	}
	if c.SourceMap {
		args = append(args, "--sourcemap")
	}
	for _, p := range c.Plugins {
		args = append(args, "-p", p)
	}
	if len(c.External) > 0 {
		args = append(args, "--external", strings.Join(c.External, ","))
	}
	if len(c.Globals) > 0 {
		var globals []string
		for _, k := range sortedKeys(c.Globals) {
			globals = append(globals, k+":"+c.Globals[k])
		}
		args = append(args, "--globals", strings.Join(globals, ","))
	}
	return args, nil
}

func (r *rollup) Bundle(c *BundleConfig) error {
	args, err := r.args(c)
	if err != nil {
		return err
	}
	if err := execError(r.runner.run(filepath.Dir(c.Entry), args)); err != nil {
		return errcode.Annotatef(err, "bundle %s", c.Dest)
	}
	return nil
}
