// Package main is the entry point for the device valuator.
package main

import (
	"os"

	"github.com/hossamelshenawy/device-valuator/cmd/valuator/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
