//go:build windows

package main

import (
	"os"
	"strconv"
)

// terminalWidth only knows COLUMNS on windows and never enables color.
func terminalWidth(*os.File) (int, bool) {
	if cols, ok := os.LookupEnv("COLUMNS"); ok {
		if n, err := strconv.Atoi(cols); err == nil && n > 0 {
			return n, false
		}
	}
	return 0, false
}
