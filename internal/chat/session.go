// Package chat runs the line-oriented question loop against an ingested
// document. It owns only the conversation surface; retrieval and answer
// synthesis live in the service layer.
package chat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Asker answers a single question. Satisfied by service.QA.
type Asker interface {
	Ask(ctx context.Context, question string) (string, error)
}

const separator = "--------------------------------------------------"

// Session reads questions from in and writes answers to out until the
// user quits or in is exhausted. Questions are independent: no history is
// kept between turns.
type Session struct {
	qa  Asker
	in  io.Reader
	out io.Writer
}

func NewSession(qa Asker, in io.Reader, out io.Writer) *Session {
	return &Session{qa: qa, in: in, out: out}
}

// Run loops until a terminal input, EOF, or context cancellation. An
// answer failure is reported and the loop continues; one bad turn never
// ends the session.
func (s *Session) Run(ctx context.Context) error {
	fmt.Fprintln(s.out, "Chat session started. Type 'quit', 'exit' or 'q' to end.")
	fmt.Fprintln(s.out, separator)

	scanner := bufio.NewScanner(s.in)
	for {
		if err := ctx.Err(); err != nil {
			fmt.Fprintln(s.out, "\nEnding chat session. Goodbye!")
			return nil
		}
		fmt.Fprint(s.out, "Ask your question: ")
		if !scanner.Scan() {
			fmt.Fprintln(s.out, "\nEnding chat session. Goodbye!")
			return scanner.Err()
		}
		question := strings.TrimSpace(scanner.Text())
		if isTerminal(question) {
			fmt.Fprintln(s.out, "Ending chat session. Goodbye!")
			return nil
		}

		fmt.Fprintln(s.out, "Processing...")
		answer, err := s.qa.Ask(ctx, question)
		if err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
			fmt.Fprintln(s.out, "Please try again.")
			fmt.Fprintln(s.out, separator)
			continue
		}
		fmt.Fprintf(s.out, "ANSWER: %s\n", answer)
		fmt.Fprintln(s.out, separator)
	}
}

// isTerminal reports whether the trimmed input ends the session. An empty
// line counts as a quit, matching the terminal tokens.
func isTerminal(input string) bool {
	switch strings.ToLower(input) {
	case "", "quit", "exit", "q":
		return true
	}
	return false
}
