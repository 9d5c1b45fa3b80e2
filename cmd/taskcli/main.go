package main

//go-build: CGO_ENABLED=0

import (
	"github.com/robotalks/tasknet/pkg/cli/sh"
	"github.com/robotalks/tasknet/pkg/env"
)

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}
