// Package main provides traceconv, a thin converter from the textual
// trace entry format to the fixed-layout binary one.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/andreipoe/cachesim/trace"
)

const (
	exitInvalidOption    = 1
	exitInvalidArguments = 2
	exitInputNotFound    = 3
	exitOutputExists     = 4
)

var (
	force  = flag.Bool("f", false, "Overwrite the output file if it already exists")
	outArg = flag.String("o", "", "Output file path (only valid with a single input)")
)

func usage(exitCode int) {
	fmt.Fprintf(os.Stderr, "Usage:\n")
	fmt.Fprintf(os.Stderr, "  traceconv [-f] [-o OUTPUT] INPUT\n")
	fmt.Fprintf(os.Stderr, "  traceconv [-f] INPUT...\n")
	os.Exit(exitCode)
}

func main() {
	flag.Parse()

	inputs := flag.Args()
	if len(inputs) < 1 || (len(inputs) > 1 && *outArg != "") {
		usage(exitInvalidArguments)
	}

	if *outArg != "" {
		convert(inputs[0], *outArg)
		return
	}

	for _, in := range inputs {
		convert(in, defaultOutName(in))
	}
}

// defaultOutName mirrors the original converter: strip the input's
// extension (everything from the last '.') and append ".bin".
func defaultOutName(inName string) string {
	if idx := strings.LastIndex(inName, "."); idx >= 0 {
		return inName[:idx] + ".bin"
	}
	return inName + ".bin"
}

func convert(inName, outName string) {
	fmt.Printf("%s --> %s... ", inName, outName)

	existed := fileExists(outName)
	if existed && !*force {
		fmt.Println("EXISTS")
		return
	}

	if !fileExists(inName) {
		fmt.Println("FAILED")
		fmt.Fprintf(os.Stderr, "input file not found: %s\n", inName)
		return
	}

	tr, err := trace.ReadTextFile(inName)
	if err != nil {
		fmt.Println("FAILED")
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return
	}

	if err := trace.WriteBinaryFile(outName, tr); err != nil {
		fmt.Println("FAILED")
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return
	}

	if !existed {
		fmt.Println("DONE")
	} else {
		fmt.Println("OVERWRITTEN")
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
