package reflex

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Runner feeds typed lines into a running Engine as if they came from the
// robot's speech recognizer. This allows driving rules from a terminal or a test
// without hardware.
//
// A line of "/wake" triggers the wakeup word; "exit" or "quit" ends the session.
// Every other non-blank line becomes an ASR result in Language.
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Headless bool
	Language string
}

// DefaultLanguage is the ASR language reported for typed input.
const DefaultLanguage = "en-US"

// NewRunner creates a Runner. Input and Output must be set before Run.
func NewRunner() *Runner {
	return &Runner{Language: DefaultLanguage}
}

// Run reads lines until EOF, an exit command or ctx cancellation.
func (r *Runner) Run(ctx context.Context, engine *Engine) error {
	if r.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	language := r.Language
	if language == "" {
		language = DefaultLanguage
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	errs := make(chan error, 1)
	go func() {
		defer close(lines)
		reader := bufio.NewReader(r.Input)
		for {
			text, err := reader.ReadString('\n')
			if text != "" {
				select {
				case lines <- text:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				if err != io.EOF {
					errs <- err
				}
				return
			}
		}
	}()

	if !r.Headless {
		fmt.Fprintln(r.Output, "--- Reflex console (type /wake, exit) ---")
	}

	for {
		if !r.Headless {
			fmt.Fprint(r.Output, "> ")
		}

		var text string
		select {
		case <-ctx.Done():
			return nil
		case err := <-errs:
			return fmt.Errorf("input error: %w", err)
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-errs:
					return fmt.Errorf("input error: %w", err)
				default:
					return nil
				}
			}
			text = strings.TrimSpace(line)
		}

		switch text {
		case "":
			continue
		case "exit", "quit":
			if !r.Headless {
				fmt.Fprintln(r.Output, "Bye!")
			}
			return nil
		case "/wake":
			if err := engine.OnWakeupWord(ctx); err != nil {
				return fmt.Errorf("wakeup: %w", err)
			}
		default:
			if err := engine.OnAsrResult(ctx, text, language); err != nil {
				return fmt.Errorf("asr result: %w", err)
			}
		}
	}
}
