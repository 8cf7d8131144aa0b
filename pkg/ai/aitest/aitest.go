// Package aitest provides a scripted ai.Client for tests.
package aitest

import (
	"context"
	"fmt"
	"sync"
)

// Reply is one scripted response.
type Reply struct {
	Text string
	Err  error
}

// Client returns its replies in order and records every prompt it receives.
// Once the script is exhausted the last reply repeats.
type Client struct {
	mu      sync.Mutex
	replies []Reply
	// Respond, when set, overrides the script.
	Respond func(prompt string) (string, error)
	prompts []string
	closed  bool
}

// New scripts a client with plain text replies.
func New(texts ...string) *Client {
	c := &Client{}
	for _, t := range texts {
		c.replies = append(c.replies, Reply{Text: t})
	}
	return c
}

// Script returns a client with the given replies.
func Script(replies ...Reply) *Client {
	return &Client{replies: replies}
}

func (c *Client) GenerateContent(ctx context.Context, prompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.prompts = append(c.prompts, prompt)
	if c.Respond != nil {
		return c.Respond(prompt)
	}
	if len(c.replies) == 0 {
		return "", fmt.Errorf("aitest: no scripted reply")
	}
	i := len(c.prompts) - 1
	if i >= len(c.replies) {
		i = len(c.replies) - 1
	}
	r := c.replies[i]
	return r.Text, r.Err
}

func (c *Client) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// Calls returns how many prompts were received.
func (c *Client) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.prompts)
}

// Prompts returns a copy of the received prompts.
func (c *Client) Prompts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.prompts...)
}

// Closed reports whether Close was called.
func (c *Client) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
