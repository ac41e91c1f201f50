package condition

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// Command is a Runtime backed by an external executable. Each evaluation
// runs the executable once, writes the Request as JSON to its stdin and
// reads a Result as JSON from its stdout.
type Command struct {
	name string
	args []string
	path string
}

// NewCommand creates a Command runtime for the executable name.
func NewCommand(name string, args ...string) *Command {
	return &Command{name: name, args: args}
}

// Init resolves the executable on PATH.
func (c *Command) Init(context.Context) error {
	path, err := exec.LookPath(c.name)
	if err != nil {
		return fmt.Errorf("locating condition engine %q: %w", c.name, err)
	}
	c.path = path
	return nil
}

// EvaluateCondition runs the executable with req on stdin.
func (c *Command) EvaluateCondition(ctx context.Context, req Request) (*Result, error) {
	if c.path == "" {
		return nil, fmt.Errorf("condition engine %q not initialised", c.name)
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding condition request: %w", err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.path, c.args...)
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("running condition engine: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	var result Result
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		return nil, fmt.Errorf("decoding condition result: %w", err)
	}
	return &result, nil
}

// Close is a no-op. Each evaluation owns its process.
func (c *Command) Close() error {
	return nil
}
