// file: main_test.go
// version: 1.0.0
// guid: 461a54c9-5f5f-4d65-b837-af03a72c07fa

package main

import (
	"os"
	"testing"
)

func TestMainHelp(t *testing.T) {
	origArgs := os.Args
	defer func() {
		os.Args = origArgs
	}()

	os.Args = []string{
		"hashgen",
		"--help",
	}

	main()
}
