package main

import (
	"github.com/charlesshaw3/SimpleServers/internal/cmd"
)

func main() {
	cmd.Execute()
}
