// Copyright (C) 2021  Shanhu Tech Inc.
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
	"path"

	"shanhu.io/misc/errcode"
	"shanhu.io/misc/tarutil"
	"shanhu.io/virgo/dock"
)

// DefaultDockerImage is the name of the toolchain image.
const DefaultDockerImage = "base/ngpack"

const toolchainDockerfile = `
FROM node:lts-alpine

RUN npm install -g \
	typescript@~2.4 @angular/compiler-cli@~4 @angular/core@~4 \
	@angular/compiler@~4 rxjs@~5 zone.js sass rollup \
	rollup-plugin-sourcemaps

RUN mkdir /usr/local/idle
COPY idle.js /usr/local/idle/idle.js

CMD ["/usr/local/bin/node", "/usr/local/idle/idle.js"]
`

// idle.js keeps the container running so that commands can be executed
// in it, while still stopping on signals.
const idleJS = `
function f() { setTimeout(f, 60*60*1000) }
function exit() {
	console.log('exiting')
	process.exit()
}
process.on('SIGTERM', exit)
process.on('SIGINT', exit)
f()`

func dockerName(registry, name string) string {
	if registry == "" {
		return name
	}
	return path.Join(registry, name)
}

func buildToolchainImage(client *dock.Client, name string) error {
	log.Printf("build docker %s", name)
	ts := dock.NewTarStream(toolchainDockerfile)
	ts.AddString("idle.js", tarutil.ModeMeta(0644), idleJS)
	if err := dock.BuildImageStream(client, name, ts); err != nil {
		return errcode.Annotate(err, "build image")
	}

	info, err := dock.InspectImage(client, name)
	if err != nil {
		return errcode.Annotate(err, "inspect built image")
	}
	log.Printf("built %s: %s", name, info.ID)
	return nil
}
