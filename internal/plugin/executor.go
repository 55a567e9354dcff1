package plugin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"
)

// Executor runs one plugin process per request: the request goes to stdin
// as JSON and the response is read from stdout.
type Executor struct {
	timeout time.Duration
}

// NewExecutor creates an Executor bounding each run by timeout. Values <= 0
// select DefaultConfig().Timeout.
func NewExecutor(timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = DefaultConfig().Timeout
	}
	return &Executor{timeout: timeout}
}

// Execute runs a plugin with the given request and returns the response.
func (e *Executor) Execute(plugin *Plugin, req *Request) (*Response, error) {
	return e.ExecuteContext(context.Background(), plugin, req)
}

// ExecuteContext marshals req to the plugin's stdin and parses its stdout
// as a Response. The run is bounded by the executor timeout and by parent.
func (e *Executor) ExecuteContext(parent context.Context, plugin *Plugin, req *Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(parent, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, plugin.Executable)

	cmd.Dir = plugin.Path

	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	cmd.Stdin = bytes.NewReader(reqJSON)

	// Capture stdout and stderr
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()

	if ctx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("plugin %s timed out after %s", plugin.Manifest.Name, e.timeout)
	}
	if parent.Err() != nil {
		return nil, fmt.Errorf("plugin execution cancelled: %w", parent.Err())
	}

	// Check for execution error
	if err != nil {
		stderrStr := stderr.String()
		if stderrStr != "" {
			return nil, fmt.Errorf("plugin execution failed: %w, stderr: %s", err, stderrStr)
		}
		return nil, fmt.Errorf("plugin execution failed: %w", err)
	}

	// Parse the response from stdout
	var response Response
	if err := json.Unmarshal(stdout.Bytes(), &response); err != nil {
		return nil, fmt.Errorf("failed to parse plugin response: %w, stdout: %s", err, stdout.String())
	}

	return &response, nil
}
