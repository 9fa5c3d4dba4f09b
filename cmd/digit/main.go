package main

import "github.com/digit-ml/digit/internal/cli"

func main() {
	cli.Execute()
}
