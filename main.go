package main

import (
	"os"

	"github.com/gokaycavdar/go-senderinfo/pkg/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
