package main

import (
	"shanhu.io/ngpack/ngpackbin"
)

func main() { ngpackbin.Main() }
