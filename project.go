package ngpack

import (
	"shanhu.io/misc/errcode"
	"shanhu.io/misc/jsonutil"
	"shanhu.io/misc/jsonx"
	"shanhu.io/misc/osutil"
)

// ProjectFile is the optional project file under the project root.
const ProjectFile = "ngpack.jsonx"

// Project is the structure of the ngpack.jsonx file. All fields are
// optional. External, Globals and Plugins keep their defaults unless
// the file sets them.
type Project struct {
	// Name overrides the library name from package.json.
	Name string `json:",omitempty"`

	// External lists the dependencies and peer dependencies of the
	// library. They are kept as imports in the bundles.
	External []string `json:",omitempty"`

	// Globals maps each external module to the global variable that
	// provides it, for umd bundle users.
	Globals map[string]string `json:",omitempty"`

	// Plugins are bundler plugins. Default "sourcemaps".
	Plugins []string `json:",omitempty"`

	// NoSourceMap disables bundle source maps.
	NoSourceMap bool `json:",omitempty"`

	ES5Format    string `json:",omitempty"` // Default "es".
	ES2015Format string `json:",omitempty"` // Default "es".

	// Compiler project files in the staged sources.
	ES5Config    string `json:",omitempty"` // Default "tsconfig.es5.json".
	ES2015Config string `json:",omitempty"` // Default "tsconfig.build.json".
}

func defaultProject() *Project {
	return &Project{
		External: []string{"@angular/core"},
		Globals: map[string]string{
			"@angular/core": "ng.core",
		},
		Plugins: []string{"sourcemaps"},
	}
}

// fillDefaults sets the list and map fields the project file left out.
func (p *Project) fillDefaults() {
	def := defaultProject()
	if p.External == nil {
		p.External = def.External
	}
	if p.Globals == nil {
		p.Globals = def.Globals
	}
	if p.Plugins == nil {
		p.Plugins = def.Plugins
	}
}

func (p *Project) sourceMap() bool { return !p.NoSourceMap }

func (p *Project) es5Config() string {
	if p.ES5Config == "" {
		return "tsconfig.es5.json"
	}
	return p.ES5Config
}

func (p *Project) es2015Config() string {
	if p.ES2015Config == "" {
		return "tsconfig.build.json"
	}
	return p.ES2015Config
}

// readProject reads the project file f. A missing file yields the
// default project.
func readProject(f string) (*Project, error) {
	ok, err := osutil.IsRegular(f)
	if err != nil {
		return nil, errcode.Annotate(err, "check project file")
	}
	if !ok {
		return defaultProject(), nil
	}

	p := new(Project)
	if err := jsonx.ReadFile(f, p); err != nil {
		return nil, errcode.Annotatef(err, "read %s", f)
	}
	p.fillDefaults()
	return p, nil
}

type packageManifest struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

func readPackageName(f string) (string, error) {
	m := new(packageManifest)
	if err := jsonutil.ReadFile(f, m); err != nil {
		return "", errcode.Annotate(err, "read package manifest")
	}
	if m.Name == "" {
		return "", errcode.InvalidArgf("%s has no name", f)
	}
	return m.Name, nil
}

// readLibName reads the library name from the package.json in the
// project root, or from src/package.json when the root has none.
func readLibName(e *env) (string, error) {
	f := e.root("package.json")
	ok, err := osutil.IsRegular(f)
	if err != nil {
		return "", errcode.Annotate(err, "check package manifest")
	}
	if !ok {
		f = e.src("package.json")
	}
	return readPackageName(f)
}
