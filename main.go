package main

import "github.com/naka-gawa/repo-event-stats/cmd"

func main() {
	cmd.Execute()
}
