package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/emmett/voxnote/internal/transcribe"
)

// ConsoleOutput writes progress and status lines for interactive use
type ConsoleOutput struct {
	mu     sync.Mutex
	writer io.Writer
	quiet  bool
}

// ConsoleConfig configures console output behavior
type ConsoleConfig struct {
	// Quiet suppresses progress and info lines
	Quiet bool

	// Writer is the output destination (default: os.Stderr)
	Writer io.Writer
}

// NewConsoleOutput creates a new console output handler
func NewConsoleOutput(config ConsoleConfig) *ConsoleOutput {
	writer := config.Writer
	if writer == nil {
		writer = os.Stderr
	}
	return &ConsoleOutput{writer: writer, quiet: config.Quiet}
}

// Progress renders a chunk progress bar on the current line
func (c *ConsoleOutput) Progress(p transcribe.Progress) {
	if c.quiet || p.Total == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	const width = 30
	done := p.Window.Index + 1
	filled := done * width / p.Total
	note := ""
	if p.Skipped {
		note = " (silent)"
	}
	fmt.Fprintf(c.writer, "\r[%-*s] %d/%d%s", width, strings.Repeat("=", filled), done, p.Total, note)
	if done == p.Total {
		fmt.Fprintln(c.writer)
	}
}

// Info writes an informational message
func (c *ConsoleOutput) Info(msg string) {
	if c.quiet {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.writer, "[INFO] %s\n", msg)
}

// Error writes an error message
func (c *ConsoleOutput) Error(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.writer, "[ERROR] %s\n", msg)
}
