package main

import "github.com/alekhino/spacegate/internal/cli"

func main() {
	cli.Execute()
}
