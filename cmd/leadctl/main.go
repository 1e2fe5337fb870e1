package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/xavierca1/rwa-leads/internal/cli"
)

func main() {
	godotenv.Load()
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
