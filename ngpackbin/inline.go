package ngpackbin

import (
	"os"

	"shanhu.io/misc/errcode"
	"shanhu.io/ngpack/inline"
	"shanhu.io/text/lexing"
)

func cmdInline(args []string) error {
	flags := cmdFlags.New()
	dir := flags.String("dir", ".", "directory of the sources to inline")
	style := flags.String("style", "css", "style preprocessor extension")
	flags.ParseArgs(args)

	in, err := inline.New(&inline.Options{StyleExt: *style})
	if err != nil {
		return err
	}

	wd, err := os.Getwd()
	if err != nil {
		return errcode.Annotate(err, "get work dir")
	}
	if errs := in.InlineDir(*dir); errs != nil {
		lexing.FprintErrs(os.Stderr, errs, wd)
		return errcode.InvalidArgf("inline got %d errors", len(errs))
	}
	return nil
}
