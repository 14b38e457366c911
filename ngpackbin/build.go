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

package ngpackbin

import (
	"fmt"
	"io"
	"os"
	"time"

	"shanhu.io/misc/errcode"
	"shanhu.io/ngpack"
)

func printResults(w io.Writer, results []*ngpack.StageResult) {
	for _, r := range results {
		status := "ok"
		if !r.OK {
			status = "FAIL"
		}
		fmt.Fprintf(
			w, "%-20s %-4s %s\n",
			r.Stage, status, r.Duration.Round(time.Millisecond),
		)
	}
}

func cmdBuild(args []string) error {
	flags := cmdFlags.New()
	config := new(ngpack.Config)
	declareBuildFlags(flags, config)
	flags.StringVar(
		&config.Journal, "journal", "",
		"sqlite file to record the build in",
	)
	flags.BoolVar(
		&config.Pack, "pack", false,
		"write a package tarball after the build",
	)
	args = flags.ParseArgs(args)
	if len(args) != 0 {
		return errcode.InvalidArgf("unexpected arguments: %q", args)
	}

	b := ngpack.NewBuilder(config)
	results, err := b.Build()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Build failed. See below for errors.")
		fmt.Fprintln(os.Stderr)
		printResults(os.Stderr, results)
		return err
	}
	printResults(os.Stdout, results)
	return nil
}

func cmdBase(args []string) error {
	flags := cmdFlags.New()
	config := new(ngpack.Config)
	declareDockerFlags(flags, config)
	flags.ParseArgs(args)

	b := ngpack.NewBuilder(config)
	return b.BuildDockerImage()
}
