package main

import "github.com/wbxdata/replipipe/cmd"

func main() {
	cmd.Execute()
}
