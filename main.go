package main

import (
	"github.com/charmbracelet/log"
	"github.com/theapemachine/bucketreaper/cmd"
)

/*
main is the entry point of the application. It executes the root command
and exits non-zero if the run was halted.
*/
func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
