package main

import (
	"fmt"
	"os"

	"property-scraper/internal/bootstrap"
)

func main() {
	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	bootstrap.NewApp(opts).Run()
}
