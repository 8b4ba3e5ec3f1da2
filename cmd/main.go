package main

import (
	"os"

	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
