// main is the entry point of the stockpulse CLI.
package main

import (
	"github.com/huangsam/stockpulse/cmd"
	"github.com/huangsam/stockpulse/internal/contract"
)

func main() {
	if err := cmd.Execute(); err != nil {
		contract.LogFatal("Cannot run stockpulse", err)
	}
}
