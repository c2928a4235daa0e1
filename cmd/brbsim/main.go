// Command brbsim runs Byzantine Reliable Broadcast simulations from a
// JSON scenario file and reports per-node delivery outcomes.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
