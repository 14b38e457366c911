package ngpack

import (
	"log"
	"os"
	"path"
	"strings"

	"github.com/klauspost/compress/gzip"
	"shanhu.io/misc/errcode"
	"shanhu.io/misc/tarutil"
)

func packFileName(lib string) string {
	name := strings.TrimPrefix(lib, "@")
	return strings.ReplaceAll(name, "/", "-") + ".tgz"
}

// packDist writes the published dist directory into a gzipped tarball
// under the project root, with all entries under "package/", in the
// layout npm uses for package tarballs.
func packDist(e *env) error {
	names, err := selectFiles(e.distDir, "**")
	if err != nil {
		return err
	}

	ts := tarutil.NewStream()
	for _, name := range names {
		f := joinPath(e.distDir, []string{name})
		info, err := os.Stat(f)
		if err != nil {
			return errcode.Annotatef(err, "stat %q", name)
		}
		mode := int64(info.Mode().Perm())
		ts.AddFile(path.Join("package", name), tarutil.ModeMeta(mode), f)
	}

	out := e.root(packFileName(e.libName))
	log.Printf("pack %s", out)
	f, err := os.Create(out)
	if err != nil {
		return errcode.Annotate(err, "create tarball")
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	if _, err := ts.WriteTo(gz); err != nil {
		return errcode.Annotate(err, "write tarball")
	}
	if err := gz.Close(); err != nil {
		return errcode.Annotate(err, "flush gzip")
	}
	return f.Close()
}
