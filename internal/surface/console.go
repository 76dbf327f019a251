package surface

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// Console renders to a writer and reads prompt answers line by line. End of
// input cancels a prompt.
type Console struct {
	mu  sync.Mutex
	out io.Writer
	in  *bufio.Reader

	title string
}

// NewConsole builds a console surface. A nil in makes every prompt cancel.
func NewConsole(out io.Writer, in io.Reader) *Console {
	c := &Console{out: out}
	if in != nil {
		c.in = bufio.NewReader(in)
	}
	return c
}

func (c *Console) Notify(n Notification) {
	slog.Info("notification", "title", n.Title, "subtitle", n.Subtitle, "message", n.Message)
	c.mu.Lock()
	defer c.mu.Unlock()
	if n.Subtitle != "" {
		fmt.Fprintf(c.out, "%s: %s\n", n.Subtitle, n.Message)
		return
	}
	fmt.Fprintf(c.out, "%s: %s\n", n.Title, n.Message)
}

func (c *Console) Alert(title, message string) {
	slog.Warn("alert", "title", title, "message", message)
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "\n== %s ==\n%s\n\n", title, message)
}

func (c *Console) Prompt(req PromptRequest) PromptResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "%s\n%s\n> ", req.Title, req.Message)
	if c.in == nil {
		fmt.Fprintln(c.out)
		return PromptResponse{}
	}
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		if err != io.EOF {
			slog.Error("prompt read failed", "error", err)
		}
		return PromptResponse{}
	}
	return PromptResponse{Confirmed: true, Text: strings.TrimRight(line, "\r\n")}
}

// SetTitle records the title; the console has no persistent status bar.
func (c *Console) SetTitle(title string) {
	c.mu.Lock()
	c.title = title
	c.mu.Unlock()
	slog.Debug("title updated", "title", title)
}

// Title returns the last title set.
func (c *Console) Title() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.title
}
