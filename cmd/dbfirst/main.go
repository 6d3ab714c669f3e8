package main

import (
	"os"

	"github.com/TechXTT/dbfirst/pkg/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
