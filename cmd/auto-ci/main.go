package main

import "github.com/petrarca/auto-ci/internal/cmd"

func main() {
	cmd.Execute()
}
