package main

import (
	"os"

	"github.com/noah-isme/asset-desk-api/internal/cli"
)

func main() {
	if err := cli.NewRootCmd(cli.DefaultFactory).Execute(); err != nil {
		os.Exit(1)
	}
}
