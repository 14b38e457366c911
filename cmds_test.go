package ngpack

import (
	"os/exec"
	"testing"
)

func TestCallCmd(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("no sh in PATH")
	}

	for _, test := range []struct {
		script string
		want   int
	}{
		{"exit 0", 0},
		{"exit 3", 3},
	} {
		got, err := callCmd(t.TempDir(), sh, "-c", test.script)
		if err != nil {
			t.Errorf("%q: %s", test.script, err)
			continue
		}
		if got != test.want {
			t.Errorf("%q: got exit %d, want %d", test.script, got, test.want)
		}
	}

	if _, err := callCmd(t.TempDir(), "ngpack-no-such-binary"); err == nil {
		t.Error("want error for missing binary")
	}
}
