package main

import (
	"os"

	"github.com/00-khi/class-scheduling-system-sub001/cmd/schedulerctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
