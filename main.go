/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/eshop-api/products/cmd"

func main() {
	cmd.Execute()
}
