package main

import "github.com/mgn-tools/launch-template-patcher/cmd"

func main() {
	cmd.Execute()
}
