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
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar"
	"shanhu.io/misc/errcode"
)

func listAllFiles(dir string) ([]string, error) {
	var files []string
	walk := func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() { // Ignore all directories.
			return nil
		}
		files = append(files, p)
		return nil
	}

	if err := filepath.WalkDir(dir, walk); err != nil {
		return nil, err
	}
	return files, nil
}

// selectFiles returns the slash-separated paths relative to dir of all
// files under dir that match glob. "**" matches any number of
// directories.
func selectFiles(dir, glob string) ([]string, error) {
	files, err := listAllFiles(dir)
	if err != nil {
		return nil, errcode.Annotatef(err, "list files in %q", dir)
	}

	var names []string
	for _, f := range files {
		rel, err := filepath.Rel(dir, f)
		if err != nil {
			return nil, errcode.Annotatef(
				err, "get relative path for %q", f,
			)
		}
		name := filepath.ToSlash(rel)
		matched, err := doublestar.Match(glob, name)
		if err != nil {
			return nil, errcode.Annotatef(err, "bad pattern %q", glob)
		}
		if matched {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// relativeCopy copies every file under from that matches glob into to,
// keeping its path relative to from. It returns the copied names.
func relativeCopy(glob, from, to string) ([]string, error) {
	names, err := selectFiles(from, glob)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		src := filepath.Join(from, filepath.FromSlash(name))
		dest := filepath.Join(to, filepath.FromSlash(name))
		if err := copyFile(src, dest); err != nil {
			return nil, errcode.Annotatef(err, "copy %q", name)
		}
	}
	return names, nil
}

// copyFile copies file src to dest, creating the parent directories of
// dest when missing.
func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	if _, err := prepareFile(dest); err != nil {
		return errcode.Annotate(err, "prepare dir")
	}

	out, err := os.OpenFile(
		dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm(),
	)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
