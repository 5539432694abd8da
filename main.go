package main

import "github.com/lukman83/dealdesk/cmd"

func main() {
	cmd.Execute()
}
