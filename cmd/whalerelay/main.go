package main

import (
	"github.com/straider911/9whales/internal/cli"
)

func main() {
	cli.Execute()
}
