package main

import "github.com/parisxmas/OxiForms/internal/cli"

func main() {
	cli.Execute()
}
