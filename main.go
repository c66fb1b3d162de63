package main

import "payrun/cmd"

func main() {
	cmd.Execute()
}
