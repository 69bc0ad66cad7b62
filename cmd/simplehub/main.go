package main

import "simplehub/internal/cli"

func main() {
	cli.Execute()
}
