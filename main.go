package main

import "github.com/Witchie/BinSerializer/cmd"

func main() {
	cmd.Execute()
}
