package main

import (
	"workshop_tool_inventory/cmd"
	"workshop_tool_inventory/config"
)

func main() {
	config.LoadEnv()
	cmd.Execute()
}
