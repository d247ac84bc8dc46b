// Command shop runs the blog and store web application and manages its schema.
package main

import "github.com/marshallshelly/pebble-shop/cmd/shop/commands"

func main() {
	commands.Execute()
}
