package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/alessio/shellescape"
	"github.com/google/uuid"
)

// DefaultAgentPath is the helper executable used when none is configured.
const DefaultAgentPath = "tarsier_bluetooth_agent.exe"

// StatusSuccess is the envelope status of a successful agent call.
const StatusSuccess = "success"

// Device is a Bluetooth device reported by the agent. Everything other than
// the name is kept as opaque vendor metadata.
type Device struct {
	Name     string
	Metadata map[string]any
}

func (d *Device) UnmarshalJSON(data []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if name, ok := fields["name"].(string); ok {
		d.Name = name
	}
	delete(fields, "name")
	d.Metadata = fields
	return nil
}

func (d Device) MarshalJSON() ([]byte, error) {
	fields := make(map[string]any, len(d.Metadata)+1)
	for k, v := range d.Metadata {
		fields[k] = v
	}
	fields["name"] = d.Name
	return json.Marshal(fields)
}

// Agent is the out-of-process helper that talks to Bluetooth devices.
type Agent interface {
	// ListDevices returns every device the host knows about.
	ListDevices(ctx context.Context) ([]Device, error)

	// DispatchJob sends payload to the named device and returns the agent's
	// informational message.
	DispatchJob(ctx context.Context, name string, payload []byte) (string, error)
}

// ProcessAgent runs the agent executable once per call. Job payloads travel
// through a temporary file that is removed when the call returns.
type ProcessAgent struct {
	// Path of the agent executable.
	Path string
	// Args are placed before the directive arguments.
	Args []string
	// Env is appended to the current environment.
	Env []string
	// TempDir holds job files; os.TempDir() when empty.
	TempDir string
	// Timeout bounds each call when positive. The agent protocol has none.
	Timeout time.Duration
	Logger  *log.Logger
}

// NewProcessAgent creates an agent for the executable at path. It logs to
// stderr so callers can keep stdout for their own output.
func NewProcessAgent(path string) *ProcessAgent {
	if path == "" {
		path = DefaultAgentPath
	}
	return &ProcessAgent{
		Path:   path,
		Logger: log.New(os.Stderr, "[AGENT] ", log.LstdFlags|log.Lmsgprefix),
	}
}

// ListDevices runs the agent with --list.
func (a *ProcessAgent) ListDevices(ctx context.Context) ([]Device, error) {
	out, err := a.run(ctx, "--list")
	if err != nil {
		return nil, err
	}

	env, err := parseEnvelope(out)
	if err != nil {
		return nil, err
	}
	return decodeDevices(env.Devices)
}

// DispatchJob writes payload to a temporary file and runs the agent with
// --print=<name> --path=<file>.
func (a *ProcessAgent) DispatchJob(ctx context.Context, name string, payload []byte) (string, error) {
	path, err := a.createJobFile(payload)
	if err != nil {
		return "", err
	}
	defer a.removeJobFile(path)

	out, err := a.run(ctx, "--print="+name, "--path="+path)
	if err != nil {
		return "", err
	}

	env, err := parseEnvelope(out)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

func (a *ProcessAgent) run(ctx context.Context, args ...string) ([]byte, error) {
	if a.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}

	argv := append(append([]string{}, a.Args...), args...)
	commandLine := shellescape.QuoteCommand(append([]string{a.Path}, argv...))

	cmd := exec.CommandContext(ctx, a.Path, argv...)
	if len(a.Env) > 0 {
		cmd.Env = append(os.Environ(), a.Env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	a.logf("Running %s", commandLine)
	if err := cmd.Run(); err != nil {
		agentErr := &AgentError{
			Command:  commandLine,
			ExitCode: -1,
			Stderr:   strings.TrimSpace(stderr.String()),
			Err:      err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			agentErr.ExitCode = exitErr.ExitCode()
		}
		return nil, agentErr
	}

	return stdout.Bytes(), nil
}

func (a *ProcessAgent) createJobFile(payload []byte) (string, error) {
	dir := a.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, "bluetooth_"+uuid.NewString()+".txt")

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("unable to create temp file: %w", err)
	}
	if _, err := f.Write(payload); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("unable to write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("unable to write temp file: %w", err)
	}
	return path, nil
}

func (a *ProcessAgent) removeJobFile(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		a.logf("Warning: failed to remove temp file %s: %v", path, err)
	}
}

func (a *ProcessAgent) logf(format string, v ...any) {
	if a.Logger != nil {
		a.Logger.Printf(format, v...)
	}
}

// envelope is the agent's response: {"status", "message", "devices"}.
type envelope struct {
	Status  *string         `json:"status"`
	Message string          `json:"message"`
	Devices json.RawMessage `json:"devices"`
}

// parseEnvelope decodes agent output. Output that is not a JSON object with a
// status is an *UnexpectedResponseError; a status other than success is an
// *AgentStatusError carrying the agent's message.
func parseEnvelope(out []byte) (*envelope, error) {
	trimmed := bytes.TrimSpace(out)

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, &UnexpectedResponseError{Output: string(trimmed), Err: err}
	}
	if env.Status == nil {
		return nil, &UnexpectedResponseError{Output: string(trimmed)}
	}
	if *env.Status != StatusSuccess {
		return nil, &AgentStatusError{Status: *env.Status, Message: env.Message}
	}
	return &env, nil
}

// decodeDevices accepts the device list either as a JSON-encoded string, as
// the agent sends it, or as a plain array.
func decodeDevices(raw json.RawMessage) ([]Device, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []Device{}, nil
	}

	if raw[0] == '"' {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return nil, &UnexpectedResponseError{Output: string(raw), Err: err}
		}
		raw = json.RawMessage(strings.TrimSpace(encoded))
		if len(raw) == 0 {
			return []Device{}, nil
		}
	}

	var devices []Device
	if err := json.Unmarshal(raw, &devices); err != nil {
		return nil, &UnexpectedResponseError{Output: string(raw), Err: err}
	}
	if devices == nil {
		devices = []Device{}
	}
	return devices, nil
}
