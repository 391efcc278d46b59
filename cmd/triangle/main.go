// Command triangle classifies a triangle from three side lengths.
//
//	triangle [-json] [-tolerance T] A B C
//
// Exit status is 0 for a valid triangle, 1 when the sides cannot form a
// triangle and 2 for unusable input.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/muliwe/go-triangle-classifier/internal/classifier"
)

const (
	exitOK              = 0
	exitInvalidTriangle = 1
	exitInvalidInput    = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("triangle", flag.ContinueOnError)
	fs.SetOutput(stderr)
	asJSON := fs.Bool("json", false, "Print the full result as JSON")
	tolerance := fs.Float64("tolerance", 0, "Relative tolerance when comparing sides for equality")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: triangle [-json] [-tolerance T] A B C")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return exitInvalidInput
	}

	clf, err := classifier.New(classifier.Config{Tolerance: *tolerance})
	if err != nil {
		fmt.Fprintf(stderr, "triangle: %v\n", err)
		return exitInvalidInput
	}

	sides, err := classifier.ParseSides(fs.Args())
	if err != nil {
		fmt.Fprintf(stderr, "triangle: %v\n", err)
		fs.Usage()
		return exitInvalidInput
	}

	result := clf.Classify(sides)
	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			fmt.Fprintf(stderr, "triangle: %v\n", err)
			return exitInvalidInput
		}
	} else if result.Valid {
		fmt.Fprintln(stdout, result.Classification)
	} else {
		fmt.Fprintf(stderr, "triangle: %s: %s\n", result.ErrorKind, result.Reason)
	}

	switch result.ErrorKind {
	case "":
		return exitOK
	case classifier.ErrorKindInvalidInput:
		return exitInvalidInput
	default:
		return exitInvalidTriangle
	}
}
