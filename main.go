package main

import "github.com/taylorsudo/rba-aud-rates/internal/cli"

func main() {
	cli.Execute()
}
