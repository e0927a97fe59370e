package main

import "github.com/pfrederiksen/ikoma-events/internal/cli"

func main() {
	cli.Execute()
}
