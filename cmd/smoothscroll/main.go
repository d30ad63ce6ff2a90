package main

import (
	"fmt"
	"os"

	"github.com/negativepl/SmoothScroll/internal/cmd"
)

func main() {
	root := cmd.NewRootCommand()
	if err := root.Execute(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "smoothscroll:", err)
		os.Exit(1)
	}
}
