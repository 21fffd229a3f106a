package main

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		os.Stderr.WriteString("pinctl: could not read .env: " + err.Error() + "\n")
	}
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
