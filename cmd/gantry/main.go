package main

import (
	"os"

	"github.com/schmitthub/gantry/internal/gantry"
)

func main() {
	os.Exit(gantry.Main())
}
