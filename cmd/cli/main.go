package main

import "github.com/mchmarny/trustchain/pkg/cli"

func main() {
	cli.Execute()
}
