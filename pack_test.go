package ngpack

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/gzip"
)

func TestPackDist(t *testing.T) {
	e := newEnv(t.TempDir())
	e.libName = "@acme/widgets"
	writeTestFiles(t, e.distDir, map[string]string{
		"package.json":    `{"name": "@acme/widgets"}`,
		"widgets.js":      "let w;",
		"lib/widget.d.ts": "export class Widget {}",
	})

	if err := packDist(e); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(filepath.Join(e.rootDir, "acme-widgets.tgz"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatal(err)
	}

	got := make(map[string]string)
	r := tar.NewReader(gz)
	for {
		h, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		bs, err := io.ReadAll(r)
		if err != nil {
			t.Fatal(err)
		}
		got[h.Name] = string(bs)
	}

	want := map[string]string{
		"package/package.json":    `{"name": "@acme/widgets"}`,
		"package/widgets.js":      "let w;",
		"package/lib/widget.d.ts": "export class Widget {}",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tarball: (-want +got)\n%s", diff)
	}
}
