// Package ui renders the colored, emoji-prefixed status lines submit and
// land print while walking the stack, in the idiom of the teacher's
// land.go (printf with inline ✓/❌/⏳ markers) generalized to use
// fatih/color instead of raw escape sequences for the surrounding text.
package ui

import (
	"fmt"

	"github.com/fatih/color"
)

var (
	ok    = color.New(color.FgGreen)
	warn  = color.New(color.FgYellow)
	fail  = color.New(color.FgRed)
	faint = color.New(color.Faint)
)

// Step prints a numbered stack entry, e.g. "[2/5] PR #42: add widget".
func Step(i, total int, format string, args ...any) {
	prefix := fmt.Sprintf("[%d/%d] ", i, total)
	faint.Print(prefix)
	fmt.Printf(format+"\n", args...)
}

// Success prints a green checkmark line.
func Success(format string, args ...any) {
	ok.Print("  ✓ ")
	fmt.Printf(format+"\n", args...)
}

// Warn prints a yellow warning line.
func Warn(format string, args ...any) {
	warn.Print("  ⚠ ")
	fmt.Printf(format+"\n", args...)
}

// Fail prints a red failure line.
func Fail(format string, args ...any) {
	fail.Print("  ❌ ")
	fmt.Printf(format+"\n", args...)
}

// Pending prints a dim in-progress line.
func Pending(format string, args ...any) {
	faint.Print("  ⏳ ")
	fmt.Printf(format+"\n", args...)
}
