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
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
	"shanhu.io/misc/errcode"
	"shanhu.io/ngpack/inline"
)

func pipelineStages(style string, pack bool) []*stage {
	stages := []*stage{{
		name: StageSources,
		run:  stageSources,
	}, {
		name: StagePreprocess,
		run: func(e *env) error {
			return preprocessStyles(e, style)
		},
	}, {
		name: StageInline,
		run: func(e *env) error {
			return inlineResources(e, style)
		},
		done: "Inlining succeeded.",
	}, {
		name: StageCompileES5,
		run: func(e *env) error {
			return compile(e, e.project.es5Config(), "ES5")
		},
		done: "ES5 compilation succeeded.",
	}, {
		name: StageCompileES2015,
		run: func(e *env) error {
			return compile(e, e.project.es2015Config(), "ES2015")
		},
		done: "ES2015 compilation succeeded.",
	}, {
		name: StageCopyTypings,
		run:  copyTypings,
		done: "Typings and metadata copy succeeded.",
	}, {
		name: StageBundle,
		run:  bundle,
		done: "All bundles generated successfully.",
	}, {
		name: StagePackageFiles,
		run:  copyPackageFiles,
		done: "Package files copy succeeded.",
	}, {
		name: StagePublish,
		run:  publish,
	}}

	if pack {
		stages = append(stages, &stage{name: StagePack, run: packDist})
	}
	return stages
}

func stageSources(e *env) error {
	if err := os.RemoveAll(e.compileDir); err != nil {
		return errcode.Annotate(err, "clean compilation dir")
	}
	names, err := relativeCopy("**/*", e.srcDir, e.tmpDir)
	if err != nil {
		return err
	}
	log.Printf("staged %d files", len(names))
	return nil
}

func isPlainCSS(style string) bool {
	return style == "" || style == "css"
}

func preprocessStyles(e *env, style string) error {
	if isPlainCSS(style) {
		return nil
	}

	names, err := selectFiles(e.tmpDir, "**/*."+style)
	if err != nil {
		return err
	}
	for _, name := range names {
		if strings.HasPrefix(path.Base(name), "_") {
			continue // Partials are only imported.
		}
		in := e.tmp(name)
		out := e.tmp(strings.TrimSuffix(name, "."+style) + ".css")
		log.Printf("compile %s", name)
		if err := e.tools.preprocess.Compile(
			in, out, []string{e.tmpDir},
		); err != nil {
			return errcode.Annotatef(err, "compile %q", name)
		}
	}
	return nil
}

func inlineResources(e *env, style string) error {
	in, err := inline.New(&inline.Options{StyleExt: style})
	if err != nil {
		return err
	}
	if errs := in.InlineDir(e.tmpDir); errs != nil {
		return errcode.Annotatef(
			errs[0], "%d file(s) failed to inline, first", len(errs),
		)
	}
	return nil
}

func compile(e *env, config, level string) error {
	exit, err := e.tools.compiler.Compile(e.tmp(config))
	if err != nil {
		return errcode.Annotatef(err, "Unable to compile %s", level)
	}
	if exit != 0 {
		return errcode.Internalf(
			"Unable to compile %s: exit with code %d", level, exit,
		)
	}
	return nil
}

func copyTypings(e *env) error {
	for _, glob := range []string{
		"**/*.d.ts",
		"**/*.metadata.json",
	} {
		if _, err := relativeCopy(glob, e.es2015Dir, e.distStage); err != nil {
			return errcode.Annotatef(err, "copy %s", glob)
		}
	}
	return nil
}

func bundle(e *env) error {
	configs := bundleConfigs(e)
	for _, c := range configs {
		if _, err := prepareFile(c.Dest); err != nil {
			return errcode.Annotate(err, "prepare bundle dir")
		}
	}

	var g errgroup.Group
	for _, c := range configs {
		c := c
		g.Go(func() error {
			log.Printf("bundle %s", c.Dest)
			return e.tools.bundler.Bundle(c)
		})
	}
	return g.Wait()
}

func copyPackageFiles(e *env) error {
	for _, f := range []struct {
		src      string
		optional bool
	}{
		{src: e.root("LICENSE"), optional: true},
		{src: e.src("package.json")},
		{src: e.root("README.md"), optional: true},
	} {
		name := filepath.Base(f.src)
		if err := copyFile(f.src, e.dist(name)); err != nil {
			if f.optional && os.IsNotExist(err) {
				log.Printf("%s not found, skipped", name)
				continue
			}
			return errcode.Annotatef(err, "copy %s", name)
		}
	}
	return nil
}

// publish moves the assembled dist directory into place, replacing the
// previous one.
func publish(e *env) error {
	if err := os.RemoveAll(e.distDir); err != nil {
		return errcode.Annotate(err, "remove old dist")
	}
	if err := os.Rename(e.distStage, e.distDir); err != nil {
		return errcode.Annotate(err, "move dist")
	}
	return nil
}
