package ngpack

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"shanhu.io/misc/errcode"
	"shanhu.io/virgo/dock"
)

func exitError(exit int) error {
	if exit == 0 {
		return nil
	}
	return fmt.Errorf("exit with code: %d", exit)
}

func execError(ret int, err error) error {
	if err != nil {
		return err
	}
	return exitError(ret)
}

func contExec(cont *dock.Cont, args []string) error {
	return execError(cont.ExecArgs(args))
}

func linuxPathJoin(parts ...string) string {
	return path.Join(parts...)
}

// mapPath maps host path p under hostRoot to the same relative path under
// contRoot. Paths outside of hostRoot cannot be mapped.
func mapPath(hostRoot, contRoot, p string) (string, error) {
	rel, err := filepath.Rel(hostRoot, p)
	if err != nil {
		return "", errcode.Annotatef(err, "map %q", p)
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", errcode.InvalidArgf("%q is outside of %q", p, hostRoot)
	}
	return linuxPathJoin(contRoot, rel), nil
}
