package main

import (
	"os"

	"github.com/jrsaavedra1022/jwtgen/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
