package main

import "github.com/thozza/reportist/internal/cmd"

func main() {
	cmd.Execute()
}
