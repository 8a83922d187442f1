package main

import "github.com/agentic-research/quickdir/cmd"

func main() {
	cmd.Execute()
}
