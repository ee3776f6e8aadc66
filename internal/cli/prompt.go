package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

// IsInteractive reports whether stdin is a terminal.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// PromptForText asks the user for a single line of text on out and reads it
// from in. Returns an empty string if nothing was entered.
func PromptForText(in io.Reader, out io.Writer, label string) string {
	fmt.Fprintf(out, "%s: ", label)

	reader := bufio.NewReader(in)
	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		if err != io.EOF {
			log.Warn().Err(err).Msg("Failed to read input")
		}
		return ""
	}

	return strings.TrimSpace(input)
}
