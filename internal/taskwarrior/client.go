package taskwarrior

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"time"
)

// DateField is one of the task date attributes this tool can batch-edit.
type DateField string

const (
	FieldScheduled DateField = "scheduled"
	FieldDue       DateField = "due"
	FieldWait      DateField = "wait"
)

// DateFields returns the closed set of editable date attributes.
func DateFields() []DateField {
	return []DateField{FieldScheduled, FieldDue, FieldWait}
}

// ParseDateField maps a config string to a DateField.
func ParseDateField(name string) (DateField, bool) {
	switch DateField(strings.ToLower(strings.TrimSpace(name))) {
	case FieldScheduled:
		return FieldScheduled, true
	case FieldDue:
		return FieldDue, true
	case FieldWait:
		return FieldWait, true
	}
	return "", false
}

// Task is an immutable snapshot of one task as exported by the `task` binary.
// Date values are opaque strings in whatever form the tool emitted them.
type Task struct {
	UUID        string
	ID          int
	Description string
	Project     string
	Status      string
	Dates       map[DateField]string
}

// Date returns the raw value of a date attribute, or "" when unset.
func (t Task) Date(f DateField) string {
	return t.Dates[f]
}

var (
	// ErrUnavailable means the task binary could not be executed at all.
	ErrUnavailable = errors.New("task command unavailable")
	// ErrNoMatch means the modify targeted a uuid the tool no longer knows.
	ErrNoMatch = errors.New("no matching task")
	// ErrRejected means the tool ran but refused the modification.
	ErrRejected = errors.New("modification rejected")
)

// runFunc executes the external command and returns stdout, stderr.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, []byte, error)

func execRun(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Client drives the external `task` binary. All reads and writes go through
// it; nothing is cached locally except the report-name list.
type Client struct {
	command string
	run     runFunc

	mu            sync.Mutex
	reportNames   map[string]struct{}
	reportFetched time.Time
	reportTTL     time.Duration
}

func New() *Client {
	return &Client{
		command:   "task",
		run:       execRun,
		reportTTL: 15 * time.Second,
	}
}

// baseArgs disables confirmation prompts and hooks so subprocess calls never
// block on interactive input.
func (c *Client) baseArgs() []string {
	return []string{"rc.confirmation=off", "rc.hooks=0"}
}

var reportLine = regexp.MustCompile(`^report\.([^.]+)\.`)

// ReportNames returns the report names known to the task binary, parsed from
// `task _config` output. Results are cached for a short TTL.
func (c *Client) ReportNames(ctx context.Context) (map[string]struct{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.reportNames != nil && time.Since(c.reportFetched) < c.reportTTL {
		return c.reportNames, nil
	}

	args := append(c.baseArgs(), "_config")
	stdout, stderr, err := c.run(ctx, c.command, args...)
	if err != nil {
		return nil, classifyRunError(err, stderr)
	}

	names := make(map[string]struct{})
	for _, line := range strings.Split(string(stdout), "\n") {
		if m := reportLine.FindStringSubmatch(line); m != nil {
			names[m[1]] = struct{}{}
		}
	}
	c.reportNames = names
	c.reportFetched = time.Now()
	return names, nil
}

// Export fetches tasks for a filter expression or report name.
//
// The argument is tokenized; if the last token is a known report name the
// command becomes `task <filters...> export <report>`, otherwise the whole
// string is treated as a filter: `task <tokens...> export`. An empty string
// exports everything. An empty result is a valid success, distinct from an
// execution error.
func (c *Client) Export(ctx context.Context, filterOrReport string) ([]Task, error) {
	tokens := strings.Fields(filterOrReport)

	args := c.baseArgs()
	if len(tokens) > 0 {
		names, err := c.ReportNames(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve report names: %w", err)
		}
		last := tokens[len(tokens)-1]
		if _, ok := names[last]; ok {
			args = append(args, tokens[:len(tokens)-1]...)
			args = append(args, "export", last)
		} else {
			args = append(args, tokens...)
			args = append(args, "export")
		}
	} else {
		args = append(args, "export")
	}

	stdout, stderr, err := c.run(ctx, c.command, args...)
	if err != nil {
		return nil, classifyRunError(err, stderr)
	}
	return decodeTasks(stdout)
}

// Modify sets a single date attribute on a single task. An empty value clears
// the attribute (`task uuid:<uuid> modify <field>:`).
func (c *Client) Modify(ctx context.Context, uuid string, field DateField, value string) error {
	args := append(c.baseArgs(), "uuid:"+uuid, "modify", fmt.Sprintf("%s:%s", field, value))
	_, stderr, err := c.run(ctx, c.command, args...)
	if err != nil {
		return classifyRunError(err, stderr)
	}
	return nil
}

func classifyRunError(err error, stderr []byte) error {
	if errors.Is(err, exec.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	msg := strings.TrimSpace(string(stderr))
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if strings.Contains(msg, "No matches") {
			return ErrNoMatch
		}
		if msg == "" {
			msg = err.Error()
		}
		return fmt.Errorf("%w: %s", ErrRejected, msg)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// exportTask mirrors the subset of taskwarrior's export JSON this tool reads.
type exportTask struct {
	ID          int    `json:"id"`
	UUID        string `json:"uuid"`
	Description string `json:"description"`
	Project     string `json:"project"`
	Status      string `json:"status"`
	Scheduled   string `json:"scheduled"`
	Due         string `json:"due"`
	Wait        string `json:"wait"`
}

func decodeTasks(data []byte) ([]Task, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	var raw []exportTask
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("decode export output: %w", err)
	}
	tasks := make([]Task, 0, len(raw))
	for _, r := range raw {
		tasks = append(tasks, Task{
			UUID:        r.UUID,
			ID:          r.ID,
			Description: r.Description,
			Project:     r.Project,
			Status:      r.Status,
			Dates: map[DateField]string{
				FieldScheduled: r.Scheduled,
				FieldDue:       r.Due,
				FieldWait:      r.Wait,
			},
		})
	}
	return tasks, nil
}
