package main

import "bmad/cmd/bmad/root"

func main() {
	root.Execute()
}
