// Package main provides the esyr CLI.
package main

import "github.com/mesh-intelligence/esyr/internal/cli"

func main() {
	cli.Execute()
}
