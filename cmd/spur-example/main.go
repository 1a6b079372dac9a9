// Command spur-example serves a small notes API built with spur. It shows
// the middleware, query and form schemas, mounting and configuration
// hot reload working together.
package main

func main() {
	Execute()
}
