package main

import (
	"fmt"
	"os"

	"growth-mcs/cmd/growth-mcs/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
