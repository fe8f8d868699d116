package main

import "github.com/finsight-hq/burnwatch/internal/cli"

func main() {
	cli.Execute()
}
