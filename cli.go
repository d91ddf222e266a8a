//go:build cli
// +build cli

package main

import (
	_ "modular.GO/custom"
	_ "modular.GO/units/product"

	"modular.GO/cmd"
	"modular.GO/config"
)

func main() {
	config.LoadEnv()
	cmd.Execute()
}
