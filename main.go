package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"ping-onramp/cmd"
)

func main() {
	// Optional: local overrides for relay credentials and RPC endpoints
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
