package ngpack

import (
	"os"
	"os/exec"

	"shanhu.io/misc/osutil"
)

type execJob struct {
	dir  string
	bin  string
	args []string
}

func (j *execJob) command() *exec.Cmd {
	cmd := exec.Command(j.bin, j.args...)
	cmd.Dir = j.dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	osutil.CmdCopyEnv(cmd, "HOME")
	osutil.CmdCopyEnv(cmd, "PATH")
	osutil.CmdCopyEnv(cmd, "NODE_PATH")
	osutil.CmdCopyEnv(cmd, "NODE_OPTIONS")
	return cmd
}

// callCmd runs the command and returns its exit code. A command that
// cannot be started returns an error.
func callCmd(dir, bin string, args ...string) (int, error) {
	j := &execJob{
		dir:  dir,
		bin:  bin,
		args: args,
	}
	if err := j.command().Run(); err != nil {
		if err, ok := err.(*exec.ExitError); ok {
			return err.ExitCode(), nil
		}
		return -1, err
	}
	return 0, nil
}
