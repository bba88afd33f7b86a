package main

import (
	"os"

	"flashcard-scheduler/internal/interfaces/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
