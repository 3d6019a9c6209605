// Package docker manages a local Neo4j container through the Docker CLI.
package docker

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"strings"
	"time"
)

// State is the lifecycle state of a named container.
type State string

const (
	StateMissing State = "missing"
	StateStopped State = "stopped"
	StateRunning State = "running"
)

// ErrDockerUnavailable is returned when the docker CLI cannot reach a daemon.
var ErrDockerUnavailable = errors.New("docker is not available; install Docker and make sure it is running")

// Runner executes a docker subcommand and returns its stdout.
type Runner func(ctx context.Context, args ...string) ([]byte, error)

// ExecRunner runs the real docker binary.
func ExecRunner(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "docker", args...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return out, fmt.Errorf("docker %s: %w (stderr: %s)", args[0], err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return out, fmt.Errorf("docker %s: %w", args[0], err)
	}
	return out, nil
}

// ContainerConfig describes the Neo4j container to run.
type ContainerConfig struct {
	Name     string
	Image    string
	BoltPort string
	HTTPPort string
	Username string
	Password string
}

// Validate checks that all required fields are set.
func (c *ContainerConfig) Validate() error {
	var missing []string

	if c.Name == "" {
		missing = append(missing, "Name")
	}
	if c.Image == "" {
		missing = append(missing, "Image")
	}
	if c.Username == "" {
		missing = append(missing, "Username")
	}
	if c.Password == "" {
		missing = append(missing, "Password")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}

	return nil
}

// runArgs builds the `docker run` arguments for c.
func (c *ContainerConfig) runArgs() []string {
	bolt := c.BoltPort
	if bolt == "" {
		bolt = "7687"
	}
	httpPort := c.HTTPPort
	if httpPort == "" {
		httpPort = "7474"
	}
	return []string{
		"run",
		"-d",
		"--name", c.Name,
		"-p", bolt + ":7687",
		"-p", httpPort + ":7474",
		"-e", fmt.Sprintf("NEO4J_AUTH=%s/%s", c.Username, c.Password),
		c.Image,
	}
}

// BoltPortFromURI extracts the port of a bolt or neo4j URI, defaulting to 7687.
func BoltPortFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Port() == "" {
		return "7687"
	}
	return u.Port()
}

// Manager drives container lifecycle commands.
type Manager struct {
	run Runner
	// PollInterval is the delay between readiness checks.
	PollInterval time.Duration
}

// NewManager returns a Manager using run, or the docker binary when run is nil.
func NewManager(run Runner) *Manager {
	if run == nil {
		run = ExecRunner
	}
	return &Manager{run: run, PollInterval: time.Second}
}

// Available reports whether the docker CLI can reach a daemon.
func (m *Manager) Available(ctx context.Context) bool {
	_, err := m.run(ctx, "version")
	return err == nil
}

// Status reports whether the named container is missing, stopped or running.
func (m *Manager) Status(ctx context.Context, name string) (State, error) {
	filter := fmt.Sprintf("name=^%s$", name)

	out, err := m.run(ctx, "ps", "-a", "--filter", filter, "--format", "{{.Names}}")
	if err != nil {
		return "", fmt.Errorf("failed to check container existence: %w", err)
	}
	if strings.TrimSpace(string(out)) != name {
		return StateMissing, nil
	}

	out, err = m.run(ctx, "ps", "--filter", filter, "--format", "{{.Names}}")
	if err != nil {
		return "", fmt.Errorf("failed to check container status: %w", err)
	}
	if strings.TrimSpace(string(out)) == name {
		return StateRunning, nil
	}
	return StateStopped, nil
}

// Ensure creates or starts the container so that it is running. It returns
// the state the container was in beforehand.
func (m *Manager) Ensure(ctx context.Context, cfg *ContainerConfig) (State, error) {
	if !m.Available(ctx) {
		return "", ErrDockerUnavailable
	}
	if err := cfg.Validate(); err != nil {
		return "", fmt.Errorf("invalid container config: %w", err)
	}

	state, err := m.Status(ctx, cfg.Name)
	if err != nil {
		return "", err
	}

	switch state {
	case StateMissing:
		if _, err := m.run(ctx, cfg.runArgs()...); err != nil {
			return state, fmt.Errorf("failed to create container: %w", err)
		}
	case StateStopped:
		if _, err := m.run(ctx, "start", cfg.Name); err != nil {
			return state, fmt.Errorf("failed to start container: %w", err)
		}
	}
	return state, nil
}

// Stop stops the container; remove also deletes it.
func (m *Manager) Stop(ctx context.Context, name string, remove bool) error {
	if _, err := m.run(ctx, "stop", name); err != nil {
		return fmt.Errorf("failed to stop container: %w", err)
	}
	if remove {
		if _, err := m.run(ctx, "rm", name); err != nil {
			return fmt.Errorf("failed to remove container: %w", err)
		}
	}
	return nil
}

// WaitReady polls the container logs until Neo4j reports it has started, the
// container stops, or timeout elapses.
func (m *Manager) WaitReady(ctx context.Context, name string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for {
		state, err := m.Status(ctx, name)
		if err != nil {
			return err
		}
		if state != StateRunning {
			return fmt.Errorf("container %s is not running", name)
		}

		if out, err := m.run(ctx, "logs", name); err == nil && strings.Contains(string(out), "Started.") {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for container %s to be ready", name)
		case <-time.After(m.PollInterval):
		}
	}
}
