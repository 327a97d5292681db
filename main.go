/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/nanogen/studio/cmd"

func main() {
	cmd.Execute()
}
