package main

import "github.com/mcoot/warduel/internal/cli"

func main() {
	cli.Execute()
}
