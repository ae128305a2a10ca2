package main

import "github.com/AnshulRoy28/DeepmindXDevpost/cmd"

func main() {
	cmd.Execute()
}
