package main

import (
	"os"

	"github.com/soundprediction/graphconf/cmd/graphconf"
)

func main() {
	if err := graphconf.Execute(); err != nil {
		os.Exit(1)
	}
}
