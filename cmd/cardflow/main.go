package main

import (
	"github.com/MeKo-Tech/cardflow/cmd/cardflow/cmd"
)

func main() {
	cmd.Execute()
}
