package main

import "github.com/pders01/sitephoto/cmd"

func main() {
	cmd.Execute()
}
