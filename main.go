package main

import "github.com/wkalt/prdemo/cli/cmd"

func main() {
	cmd.Execute()
}
