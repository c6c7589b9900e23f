package taskwarrior

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/require"
)

const configOutput = `report.next.columns=id,description
report.all.filter=status:pending
report.overdue.labels=ID,Description
report.custom.description=Custom report
color.active=bold
`

// fakeRunner scripts subprocess behavior per invocation.
type fakeRunner struct {
	calls  [][]string
	handle func(args []string) (string, string, error)
}

func (f *fakeRunner) run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.calls = append(f.calls, args)
	stdout, stderr, err := f.handle(args)
	return []byte(stdout), []byte(stderr), err
}

func newTestClient(handle func(args []string) (string, string, error)) (*Client, *fakeRunner) {
	fr := &fakeRunner{handle: handle}
	c := New()
	c.run = fr.run
	return c, fr
}

func configAware(exportOut string) func(args []string) (string, string, error) {
	return func(args []string) (string, string, error) {
		if args[len(args)-1] == "_config" {
			return configOutput, "", nil
		}
		return exportOut, "", nil
	}
}

func TestReportNamesParsing(t *testing.T) {
	c, _ := newTestClient(configAware("[]"))

	names, err := c.ReportNames(context.Background())
	require.NoError(t, err)

	for _, want := range []string{"next", "all", "overdue", "custom"} {
		require.Contains(t, names, want)
	}
	require.NotContains(t, names, "color")
}

func TestReportNamesCached(t *testing.T) {
	c, fr := newTestClient(configAware("[]"))

	_, err := c.ReportNames(context.Background())
	require.NoError(t, err)
	_, err = c.ReportNames(context.Background())
	require.NoError(t, err)

	require.Len(t, fr.calls, 1)
}

func TestReportNamesCacheExpiry(t *testing.T) {
	c, fr := newTestClient(configAware("[]"))
	c.reportTTL = 0

	_, err := c.ReportNames(context.Background())
	require.NoError(t, err)
	_, err = c.ReportNames(context.Background())
	require.NoError(t, err)

	require.Len(t, fr.calls, 2)
}

func TestExportEmptyStringExportsAll(t *testing.T) {
	c, fr := newTestClient(configAware("[]"))

	_, err := c.Export(context.Background(), "")
	require.NoError(t, err)

	require.Len(t, fr.calls, 1)
	require.Equal(t, []string{"rc.confirmation=off", "rc.hooks=0", "export"}, fr.calls[0])
}

func TestExportKnownReport(t *testing.T) {
	c, fr := newTestClient(configAware("[]"))

	_, err := c.Export(context.Background(), "overdue")
	require.NoError(t, err)

	require.Len(t, fr.calls, 2) // _config then export
	require.Equal(t, []string{"rc.confirmation=off", "rc.hooks=0", "export", "overdue"}, fr.calls[1])
}

func TestExportFilterBeforeReport(t *testing.T) {
	c, fr := newTestClient(configAware("[]"))

	_, err := c.Export(context.Background(), "project:foo next")
	require.NoError(t, err)

	require.Equal(t, []string{"rc.confirmation=off", "rc.hooks=0", "project:foo", "export", "next"}, fr.calls[1])
}

func TestExportPureFilter(t *testing.T) {
	c, fr := newTestClient(configAware("[]"))

	_, err := c.Export(context.Background(), "project:foo +urgent")
	require.NoError(t, err)

	require.Equal(t, []string{"rc.confirmation=off", "rc.hooks=0", "project:foo", "+urgent", "export"}, fr.calls[1])
}

func TestExportDecodesTasks(t *testing.T) {
	out := `[
		{"id":1,"uuid":"aaa","description":"Test task 1","status":"pending","project":"home","scheduled":"20260206T000000Z","due":"20260208T000000Z","wait":""},
		{"id":2,"uuid":"bbb","description":"Test task 2","status":"pending","project":"","scheduled":"","due":"","wait":"20260206T000000Z"}
	]`
	c, _ := newTestClient(configAware(out))

	tasks, err := c.Export(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	require.Equal(t, "aaa", tasks[0].UUID)
	require.Equal(t, 1, tasks[0].ID)
	require.Equal(t, "home", tasks[0].Project)
	require.Equal(t, "20260206T000000Z", tasks[0].Date(FieldScheduled))
	require.Equal(t, "20260208T000000Z", tasks[0].Date(FieldDue))
	require.Equal(t, "", tasks[0].Date(FieldWait))
	require.Equal(t, "20260206T000000Z", tasks[1].Date(FieldWait))
}

func TestExportEmptyOutputIsValidSuccess(t *testing.T) {
	c, _ := newTestClient(configAware(""))

	tasks, err := c.Export(context.Background(), "")
	require.NoError(t, err)
	require.Empty(t, tasks)
}

func TestExportReportNameFailurePropagates(t *testing.T) {
	c, _ := newTestClient(func(args []string) (string, string, error) {
		return "", "", fmt.Errorf("wrap: %w", exec.ErrNotFound)
	})

	_, err := c.Export(context.Background(), "next")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestModifyArgs(t *testing.T) {
	c, fr := newTestClient(func(args []string) (string, string, error) {
		return "Modified 1 task.", "", nil
	})

	err := c.Modify(context.Background(), "aaa-bbb", FieldScheduled, "tomorrow")
	require.NoError(t, err)
	require.Equal(t, []string{"rc.confirmation=off", "rc.hooks=0", "uuid:aaa-bbb", "modify", "scheduled:tomorrow"}, fr.calls[0])
}

func TestModifyClearSendsEmptyValue(t *testing.T) {
	c, fr := newTestClient(func(args []string) (string, string, error) {
		return "", "", nil
	})

	err := c.Modify(context.Background(), "aaa", FieldDue, "")
	require.NoError(t, err)
	require.Equal(t, "due:", fr.calls[0][len(fr.calls[0])-1])
}

func TestClassifyRunError(t *testing.T) {
	exitErr := &exec.ExitError{ProcessState: &os.ProcessState{}}

	err := classifyRunError(fmt.Errorf("wrap: %w", exec.ErrNotFound), nil)
	require.ErrorIs(t, err, ErrUnavailable)

	err = classifyRunError(exitErr, []byte("No matches."))
	require.ErrorIs(t, err, ErrNoMatch)

	err = classifyRunError(exitErr, []byte("The duration value 'bogus' is not supported."))
	require.ErrorIs(t, err, ErrRejected)
	require.Contains(t, err.Error(), "bogus")

	err = classifyRunError(errors.New("context deadline exceeded"), nil)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestParseDateField(t *testing.T) {
	f, ok := ParseDateField("Scheduled")
	require.True(t, ok)
	require.Equal(t, FieldScheduled, f)

	_, ok = ParseDateField("priority")
	require.False(t, ok)
}
