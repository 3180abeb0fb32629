package executor

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// TerminalConfirmer prompts for confirmation on a terminal. It prints up to
// five example candidates and accepts "yes" or "y" (case-insensitive) as
// affirmative; anything else declines.
type TerminalConfirmer struct {
	In  io.Reader
	Out io.Writer
}

// Confirm implements Confirmer.
func (c *TerminalConfirmer) Confirm(kind Kind, total int, examples []Candidate, omitted int) (bool, error) {
	fmt.Fprintf(c.Out, "Found %d %ss to delete.\n", total, kind)
	fmt.Fprintln(c.Out, "Examples:")
	for i, cand := range examples {
		fmt.Fprintf(c.Out, "  %d. UUID=%s, Name=%s\n", i+1, cand.UUID, cand.Label)
	}
	if omitted > 0 {
		fmt.Fprintf(c.Out, "  ... and %d more\n", omitted)
	}
	fmt.Fprintf(c.Out, "Do you want to delete these %ss? (yes/no): ", kind)

	line, err := bufio.NewReader(c.In).ReadString('\n')
	if err != nil && line == "" {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "yes" || answer == "y", nil
}

// AutoConfirm accepts every batch without prompting. Used by --no-confirm
// and by single-item deletes at caller discretion.
type AutoConfirm struct{}

// Confirm implements Confirmer.
func (AutoConfirm) Confirm(Kind, int, []Candidate, int) (bool, error) {
	return true, nil
}
