package main

import (
	"context"
	"os"

	"maintrack/cmd"
)

func main() {
	if err := cmd.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
