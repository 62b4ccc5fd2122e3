package main

import (
	"os"

	"listkeep/cmd/listkeep/cmd"
)

func main() {
	os.Exit(cmd.Execute(os.Args[1:], os.Stdout, os.Stderr, nil))
}
