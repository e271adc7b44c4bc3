//go:build !windows

package main

import (
	"os"
	"strconv"

	"golang.org/x/sys/unix"
)

// terminalWidth reports the column count of f and whether f is a terminal.
// COLUMNS is honored when f is not a terminal.
func terminalWidth(f *os.File) (int, bool) {
	if ws, err := unix.IoctlGetWinsize(int(f.Fd()), unix.TIOCGWINSZ); err == nil && ws != nil && ws.Col > 0 {
		return int(ws.Col), true
	}
	return envColumns(), false
}

func envColumns() int {
	if cols, ok := os.LookupEnv("COLUMNS"); ok {
		if n, err := strconv.Atoi(cols); err == nil && n > 0 {
			return n
		}
	}
	return 0
}
