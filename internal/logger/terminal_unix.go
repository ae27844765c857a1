//go:build darwin || linux
// +build darwin linux

package logger

import (
	"os"

	"golang.org/x/sys/unix"
)

const SupportsColorEscapes = true

// Stderr is only colored when it is a terminal and NO_COLOR is unset (see
// https://no-color.org/)
func GetTerminalInfo(file *os.File) (info TerminalInfo) {
	fd := int(file.Fd())

	if _, err := unix.IoctlGetTermios(fd, ioctlReadTermios); err != nil {
		return
	}
	info.IsTTY = true
	_, noColor := os.LookupEnv("NO_COLOR")
	info.UseColorEscapes = !noColor

	if w, err := unix.IoctlGetWinsize(fd, unix.TIOCGWINSZ); err == nil {
		info.Width = int(w.Col)
		info.Height = int(w.Row)
	}
	return
}
