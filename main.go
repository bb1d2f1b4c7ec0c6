// Package main provides the entry point for CSim.
// CSim is a set-associative LRU cache simulator for valgrind memory traces.
//
// For the full CLI, use: go run ./cmd/csim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("CSim - Cache Simulator")
	fmt.Println("")
	fmt.Println("Usage: csim [-hv] -s <s> -E <E> -b <b> -t <tracefile>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -h         Print this help message")
	fmt.Println("  -v         Optional verbose flag")
	fmt.Println("  -s <s>     Number of set index bits")
	fmt.Println("  -E <E>     Associativity (number of lines per set)")
	fmt.Println("  -b <b>     Number of block bits")
	fmt.Println("  -t <file>  Name of the valgrind trace to replay")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/csim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/csim' instead.")
	}
}
