package main

import (
	"os"

	"github.com/wfkpk/authgate/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
