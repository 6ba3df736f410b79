package main

import (
	_ "time/tzdata" // Asia/Jakarta without a system zoneinfo

	"github.com/theirongolddev/kasboard/cmd"
)

func main() {
	cmd.Execute()
}
