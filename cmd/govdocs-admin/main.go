package main

import "github.com/govdocs-network/govdocs-demo/internal/cli"

func main() {
	cli.Execute()
}
