package main

import (
	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/cli"
)

func main() {
	cli.Execute()
}
