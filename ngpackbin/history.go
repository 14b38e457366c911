package ngpackbin

import (
	"fmt"
	"time"

	"shanhu.io/misc/errcode"
	"shanhu.io/ngpack"
)

func cmdHistory(args []string) error {
	flags := cmdFlags.New()
	journal := flags.String("journal", "", "sqlite file the builds are in")
	n := flags.Int("n", 10, "number of builds to list")
	flags.ParseArgs(args)

	if *journal == "" {
		return errcode.InvalidArgf("journal file not specified")
	}
	j, err := ngpack.OpenJournal(*journal)
	if err != nil {
		return err
	}
	defer j.Close()

	runs, err := j.LastRuns(*n)
	if err != nil {
		return err
	}
	for _, r := range runs {
		status := "ok"
		if !r.OK {
			status = "FAIL"
		}
		fmt.Printf(
			"#%d %s %s %s\n",
			r.ID, r.Started.Format(time.RFC3339), status, r.Root,
		)
		for _, s := range r.Stages {
			if s.OK {
				fmt.Printf("  %-20s %s\n", s.Name, s.Duration)
			} else {
				fmt.Printf("  %-20s %s: %s\n", s.Name, s.Duration, s.Err)
			}
		}
	}
	return nil
}
