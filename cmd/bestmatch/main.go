package main

import "github.com/Adithya-Monish-Kumar-K/bestmatch/internal/cli"

func main() {
	cli.Execute()
}
