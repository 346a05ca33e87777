package main

import (
	"os"

	"github.com/sgaunet/s3grab/pkg/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
