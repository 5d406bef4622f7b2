package main

import "github.com/bryanchriswhite/qalttab/cmd/qalttab/commands"

func main() {
	commands.Execute()
}
