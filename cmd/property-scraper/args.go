package main

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"property-scraper/internal/bootstrap"
)

const usage = `usage:
  property-scraper [serve]
  property-scraper run -input in.csv -output out.csv`

func parseArgs(args []string) (bootstrap.Options, error) {
	if len(args) == 0 {
		return bootstrap.Options{Command: bootstrap.CommandServe}, nil
	}

	switch bootstrap.Command(args[0]) {
	case bootstrap.CommandServe:
		if len(args) > 1 {
			return bootstrap.Options{}, fmt.Errorf("serve takes no arguments, got %v", args[1:])
		}

		return bootstrap.Options{Command: bootstrap.CommandServe}, nil
	case bootstrap.CommandRun:
		fs := flag.NewFlagSet("run", flag.ContinueOnError)
		fs.SetOutput(io.Discard)

		input := fs.String("input", "", "input CSV with a Lat/Long column")
		output := fs.String("output", "", "output CSV, replaced if it exists")

		if err := fs.Parse(args[1:]); err != nil {
			return bootstrap.Options{}, err
		}

		if *input == "" || *output == "" {
			return bootstrap.Options{}, errors.New("run requires -input and -output")
		}

		if *input == *output {
			return bootstrap.Options{}, errors.New("-input and -output must differ")
		}

		return bootstrap.Options{Command: bootstrap.CommandRun, Input: *input, Output: *output}, nil
	default:
		return bootstrap.Options{}, fmt.Errorf("unknown command %q", args[0])
	}
}
