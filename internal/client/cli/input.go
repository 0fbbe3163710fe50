package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// isTerminal is a test seam for term.IsTerminal on stdin. Prompts are only
// printed when a person is typing.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// GetSimpleText prints prompt to w when stdin is a terminal and reads one
// trimmed line from scanner. io.EOF is returned when input ends.
func GetSimpleText(scanner *bufio.Scanner, prompt string, w io.Writer) (string, error) {
	if isTerminal() {
		if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
			return "", err
		}
	}
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(scanner.Text()), nil
}

// splitUsers separates "+name" tokens from the rest of args.
func splitUsers(args []string) (rest []string, users []string) {
	for _, a := range args {
		if name, ok := strings.CutPrefix(a, "+"); ok {
			if name != "" {
				users = append(users, name)
			}
			continue
		}
		rest = append(rest, a)
	}
	return rest, users
}
