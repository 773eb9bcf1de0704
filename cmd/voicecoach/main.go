package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is fine; the environment and config file still apply.
	_ = godotenv.Load()

	if err := newRootCmd(os.Stdout, os.Stdin).Execute(); err != nil {
		os.Exit(1)
	}
}
