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
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"shanhu.io/misc/errcode"
	"shanhu.io/misc/osutil"
	"shanhu.io/virgo/dock"
)

// Tools overrides the external tools used by a build. Nil fields use the
// default command line tools.
type Tools struct {
	Compiler          Compiler
	StylePreprocessor StylePreprocessor
	Bundler           Bundler
}

// Config provides the configuration to start a builder.
type Config struct {
	Root  string // Project root directory.
	Style string // Style language: "css", "scss" or "sass".

	Docker         bool   // Run the tools in a docker container.
	DockerImage    string // Toolchain image, DefaultDockerImage when empty.
	DockerRegistry string // Registry prefix of the toolchain image.

	Journal string // Sqlite file to record build runs in; optional.
	Pack    bool   // Write a package tarball after publishing.

	Tools *Tools
}

// Builder builds a component library.
type Builder struct {
	config *Config
}

// NewBuilder creates a new builder that builds the library at
// config.Root.
func NewBuilder(config *Config) *Builder {
	return &Builder{config: config}
}

func checkStyle(style string) (string, error) {
	style = strings.TrimPrefix(style, ".")
	switch style {
	case "", "css":
		return "css", nil
	case "scss", "sass":
		return style, nil
	}
	return "", errcode.InvalidArgf("unsupported style %q", style)
}

// loadDotEnv loads tool overrides from the .env file in the project root
// when there is one. Variables already set are kept.
func loadDotEnv(root string) error {
	f := filepath.Join(root, ".env")
	ok, err := osutil.IsRegular(f)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return godotenv.Load(f)
}

func (b *Builder) image() string {
	img := b.config.DockerImage
	if img == "" {
		img = DefaultDockerImage
	}
	return dockerName(b.config.DockerRegistry, img)
}

func (b *Builder) newEnv() (*env, error) {
	root, err := filepath.Abs(b.config.Root)
	if err != nil {
		return nil, errcode.Annotate(err, "get absolute root dir")
	}
	e := newEnv(root)

	p, err := readProject(e.root(ProjectFile))
	if err != nil {
		return nil, err
	}
	e.project = p

	if p.Name != "" {
		e.libName = p.Name
	} else {
		name, err := readLibName(e)
		if err != nil {
			return nil, err
		}
		e.libName = name
	}
	return e, nil
}

func (b *Builder) setupTools(e *env) (func(), error) {
	if err := loadDotEnv(e.rootDir); err != nil {
		return nil, errcode.Annotate(err, "load .env")
	}

	var r runner = localRunner{}
	cleanup := func() {}
	if b.config.Docker {
		client := dock.NewUnixClient("")
		cr, err := newContRunner(client, b.image(), e.rootDir)
		if err != nil {
			return nil, errcode.Annotate(err, "start toolchain container")
		}
		r = cr
		cleanup = func() {
			if err := cr.close(); err != nil {
				log.Printf("drop toolchain container: %s", err)
			}
		}
	}

	tools := newToolchain(r, defaultToolBins())
	if o := b.config.Tools; o != nil {
		if o.Compiler != nil {
			tools.compiler = o.Compiler
		}
		if o.StylePreprocessor != nil {
			tools.preprocess = o.StylePreprocessor
		}
		if o.Bundler != nil {
			tools.bundler = o.Bundler
		}
	}
	e.tools = tools
	return cleanup, nil
}

// Build runs the whole packaging pipeline. It stops at the first failed
// stage and returns the results of all stages that ran, along with the
// failure.
func (b *Builder) Build() ([]*StageResult, error) {
	style, err := checkStyle(b.config.Style)
	if err != nil {
		return nil, err
	}
	e, err := b.newEnv()
	if err != nil {
		return nil, err
	}
	cleanup, err := b.setupTools(e)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	log.Printf("build %s in %s", e.libName, e.rootDir)
	started := time.Now()
	results, buildErr := runStages(e, pipelineStages(style, b.config.Pack))

	if b.config.Journal != "" {
		if err := recordRun(b.config.Journal, e.rootDir, started, results); err != nil {
			log.Printf("record build journal: %s", err)
		}
	}
	return results, buildErr
}

func recordRun(
	f, root string, started time.Time, results []*StageResult,
) error {
	j, err := OpenJournal(f)
	if err != nil {
		return err
	}
	defer j.Close()

	_, err = j.Record(root, started, results)
	return err
}

// BuildDockerImage builds the toolchain docker image used when
// Config.Docker is set.
func (b *Builder) BuildDockerImage() error {
	return buildToolchainImage(dock.NewUnixClient(""), b.image())
}
