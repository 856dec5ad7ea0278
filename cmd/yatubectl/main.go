package main

import (
	"fmt"
	"os"

	"github.com/d60-Lab/yatube/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
