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
	"path/filepath"

	"shanhu.io/misc/errcode"
	"shanhu.io/virgo/dock"
)

const contRoot = "/ngpack/root"

// contRunner runs the tools inside a nodejs container that has the
// project root mounted at contRoot.
type contRunner struct {
	hostRoot string
	cont     *dock.Cont
	envVars  []string
}

func newContRunner(client *dock.Client, image, root string) (
	*contRunner, error,
) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, errcode.Annotate(err, "get absolute root dir")
	}

	contConfig := &dock.ContConfig{
		Mounts: []*dock.ContMount{{
			Host: absRoot,
			Cont: contRoot,
		}},
	}
	cont, err := dock.CreateCont(client, image, contConfig)
	if err != nil {
		return nil, errcode.Annotate(err, "create container")
	}
	if err := cont.Start(); err != nil {
		cont.Drop()
		return nil, errcode.Annotate(err, "start container")
	}

	for _, args := range [][]string{
		{"node", "--version"},
		{"ngc", "--version"},
	} {
		if err := contExec(cont, args); err != nil {
			cont.Drop()
			return nil, errcode.Annotatef(err, "%q", args)
		}
	}

	return &contRunner{
		hostRoot: absRoot,
		cont:     cont,
		envVars:  []string{"NODE_PATH=/usr/local/lib/node_modules"},
	}, nil
}

func (r *contRunner) path(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return mapPath(r.hostRoot, contRoot, abs)
}

func (r *contRunner) run(dir string, args []string) (int, error) {
	workDir, err := r.path(dir)
	if err != nil {
		return 0, errcode.Annotate(err, "map work dir")
	}
	return r.cont.ExecWithSetup(&dock.ExecSetup{
		Cmd:        args,
		Env:        r.envVars,
		WorkingDir: workDir,
	})
}

func (r *contRunner) close() error {
	return r.cont.Drop()
}
