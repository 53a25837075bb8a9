package main

import (
	"os"

	"github.com/bnrm/backoffice/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
