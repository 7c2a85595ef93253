package main

import "github.com/lepinkainen/olcatalog/cmd"

var execute = cmd.Execute

func main() {
	execute()
}
