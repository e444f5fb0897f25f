package main

import "batch-transcriber/internal/cli"

func main() {
	cli.Execute()
}
