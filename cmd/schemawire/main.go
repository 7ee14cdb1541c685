// Package main is the entry point for the schemawire server.
package main

func main() {
	Execute()
}
