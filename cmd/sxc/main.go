package main

import (
	"fmt"
	"os"

	"sxc/pkg/compiler"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: sxc <source-file>")
		os.Exit(2)
	}

	path := os.Args[1]
	tlog.Printw("compiling", "path", path)

	src, err := os.ReadFile(path)
	if err != nil {
		fail(errors.Wrap(err, "read %v", path))
	}

	listing, err := compiler.Compile(string(src))
	if err != nil {
		fail(errors.Wrap(err, "compile %v", path))
	}

	tlog.Printw("compiled", "path", path, "bytes", len(listing))
	fmt.Println(listing)
}

func fail(err error) {
	tlog.Printw("compile failed", "err", err)
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
