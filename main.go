package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"oneramp-rates/cmd"
)

func main() {
	// .env is optional; configuration also comes from the environment and ~/.oneramp-rates.yaml
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: error loading .env file: %v\n", err)
	}

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
