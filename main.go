package main

import "github.com/iksnae/tesouro-gerencial/cmd"

func main() {
	cmd.Execute()
}
