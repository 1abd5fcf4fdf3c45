/*
	Copyright 2023 Markus Papenbrock
*/

package main

import "github.com/mpapenbr/beyond-the-apex/cmd"

func main() {
	cmd.Execute()
}
