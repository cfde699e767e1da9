package main

import "github.com/frahmantamala/chitfund-portal/cmd"

func main() {
	cmd.Execute()
}
