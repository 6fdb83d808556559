package main

import "bitwise74/account-api/cmd"

func main() {
	cmd.Execute()
}
