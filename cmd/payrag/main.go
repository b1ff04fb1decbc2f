package main

import "payrag/internal/cli"

func main() {
	cli.Execute()
}
