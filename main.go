package main

import (
	"github.com/nick-youngblut/CLdb-sub002/cmd"
)

func main() {
	cmd.Execute() // initialize cobra commands
}
