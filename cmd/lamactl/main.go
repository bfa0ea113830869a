package main

import (
	"os"

	"lamactl/internal/ctl"
)

func main() {
	os.Exit(ctl.Main())
}
