package ngpackbin

import (
	"shanhu.io/misc/flagutil"
	"shanhu.io/ngpack"
)

var cmdFlags = flagutil.NewFactory("ngpack")

func declareBuildFlags(flags *flagutil.FlagSet, c *ngpack.Config) {
	flags.StringVar(&c.Root, "root", ".", "project root folder")
	flags.StringVar(&c.Style, "style", "css", "project style: css, scss or sass")
	flags.BoolVar(&c.Docker, "docker", false, "run the tools in docker")
	declareDockerFlags(flags, c)
}

func declareDockerFlags(flags *flagutil.FlagSet, c *ngpack.Config) {
	flags.StringVar(
		&c.DockerImage, "image", ngpack.DefaultDockerImage,
		"toolchain docker image",
	)
	flags.StringVar(&c.DockerRegistry, "cr", "", "docker registry")
}
