package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// PromptYesNo prompts the user for a yes/no response using stdin/stdout.
func PromptYesNo(prompt string) bool {
	return PromptYesNoWithReader(prompt, os.Stdin, os.Stdout)
}

// PromptYesNoWithReader prompts for yes/no with custom reader/writer for testing.
// End of input counts as no.
func PromptYesNoWithReader(prompt string, reader io.Reader, writer io.Writer) bool {
	lines := LineReader(reader)

	for {
		_, _ = fmt.Fprintf(writer, "%s (y/n): ", prompt)
		line, ok := ReadLine(lines)
		if !ok {
			return false
		}

		switch strings.TrimSpace(strings.ToLower(line)) {
		case "y", "yes":
			return true
		case "n", "no":
			return false
		}
	}
}

// LineReader returns r as a *bufio.Reader, wrapping it only if needed.
// Prompts that share one input must share the returned reader, or buffering
// in the first prompt swallows answers meant for the next.
func LineReader(r io.Reader) *bufio.Reader {
	if br, ok := r.(*bufio.Reader); ok {
		return br
	}
	return bufio.NewReader(r)
}

// ReadLine reads one line without its terminator. ok is false at end of input
// when nothing was read.
func ReadLine(r *bufio.Reader) (line string, ok bool) {
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	return strings.TrimRight(line, "\r\n"), true
}
