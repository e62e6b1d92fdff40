package main

import "cultura/internal/cli"

func main() {
	cli.Execute()
}
