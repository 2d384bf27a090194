// Package main provides the driveloop command, a demo host that drives a
// scheduler from a wall-clock loop.
package main

func main() {
	Execute()
}
