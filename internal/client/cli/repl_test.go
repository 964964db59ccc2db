package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/dmitrijs2005/foodkeeper/internal/client/client"
	"github.com/stretchr/testify/require"
)

type fakeExec struct {
	loggedIn bool
	failOn   string

	calls []string
}

func (f *fakeExec) rec(format string, args ...any) error {
	c := fmt.Sprintf(format, args...)
	f.calls = append(f.calls, c)
	if f.failOn != "" && strings.HasPrefix(c, f.failOn) {
		return errors.New(f.failOn + " failed")
	}
	return nil
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }

func (f *fakeExec) Register(context.Context) error { return f.rec("register") }

func (f *fakeExec) Login(context.Context) error {
	f.loggedIn = true
	return f.rec("login")
}

func (f *fakeExec) Logout(context.Context) error {
	f.loggedIn = false
	return f.rec("logout")
}

func (f *fakeExec) Status(context.Context) error { return f.rec("status") }
func (f *fakeExec) Whoami(context.Context) error { return f.rec("whoami") }

func (f *fakeExec) ListItems(_ context.Context, opts client.ListOptions) error {
	return f.rec("list %s", opts.Category)
}

func (f *fakeExec) GetItem(_ context.Context, id string) error    { return f.rec("get %s", id) }
func (f *fakeExec) AddItemInteractive(context.Context) error      { return f.rec("add") }
func (f *fakeExec) DeleteItem(_ context.Context, id string) error { return f.rec("delete %s", id) }

func (f *fakeExec) UpdateItem(_ context.Context, id string, pairs []string) error {
	return f.rec("update %s %v", id, pairs)
}

func (f *fakeExec) Expiring(_ context.Context, days int) error  { return f.rec("expiring %d", days) }
func (f *fakeExec) Dashboard(_ context.Context, days int) error { return f.rec("dashboard %d", days) }

func (f *fakeExec) Barcode(_ context.Context, code string, save bool) error {
	return f.rec("barcode %s %t", code, save)
}

func (f *fakeExec) Analyze(_ context.Context, path string, save bool) error {
	return f.rec("analyze %s %t", path, save)
}

// capturePrintln replaces printlnFn and returns everything printed.
func capturePrintln(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, strings.TrimSuffix(fmt.Sprintln(a...), "\n"))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	capturePrintln(t)

	input := strings.Join([]string{
		"login",
		"whoami",
		"list",
		"l dairy",
		"get 42",
		"add",
		"update 42 quantity=2 name=milk",
		"delete 42",
		"expiring",
		"expiring 3",
		"dashboard 10",
		"barcode 4001",
		"barcode 4001 save",
		"analyze /tmp/a.jpg save",
		"status",
		"logout",
		"exit",
		"list",
	}, "\n")

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "(s)" }, rdr(input))

	require.Equal(t, []string{
		"login",
		"whoami",
		"list ",
		"list dairy",
		"get 42",
		"add",
		"update 42 [quantity=2 name=milk]",
		"delete 42",
		"expiring 0",
		"expiring 3",
		"dashboard 10",
		"barcode 4001 false",
		"barcode 4001 true",
		"analyze /tmp/a.jpg true",
		"status",
		"logout",
	}, exec.calls)
}

func TestRunREPL_UsageErrorsDoNotDispatch(t *testing.T) {
	lines := capturePrintln(t)

	input := "get\ndelete\nupdate\nexpiring soon\ndashboard 0\nbarcode\nbarcode 1 2\nanalyze a b c\nfoobar\n\nquit\n"
	exec := &fakeExec{loggedIn: true}
	runREPL(context.Background(), exec, func() string { return "s" }, rdr(input))

	require.Empty(t, exec.calls)
	out := strings.Join(*lines, "\n")
	require.Contains(t, out, "Usage: get <id>")
	require.Contains(t, out, "Usage: update <id> [name=value ...]")
	require.Contains(t, out, "Usage: expiring [days]")
	require.Contains(t, out, "Usage: barcode <arg> [save]")
	require.Contains(t, out, "Unknown command: foobar")
	require.Contains(t, out, "Bye!")
}

func TestRunREPL_HelpDependsOnSession(t *testing.T) {
	lines := capturePrintln(t)

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "s" }, rdr("help\nlogin\nhelp\n"))

	var helps []string
	for _, l := range *lines {
		if strings.HasPrefix(l, "Available commands:") {
			helps = append(helps, l)
		}
	}
	require.Len(t, helps, 2)
	require.NotContains(t, helps[0], "dashboard")
	require.Contains(t, helps[1], "dashboard")
}

func TestRunREPL_PrintsErrorsAndContinues(t *testing.T) {
	lines := capturePrintln(t)

	exec := &fakeExec{loggedIn: true, failOn: "list"}
	runREPL(context.Background(), exec, func() string { return "s" }, rdr("list\nstatus\n"))

	require.Equal(t, []string{"list ", "status"}, exec.calls)
	require.Contains(t, *lines, "Error: list failed")
}

func TestRunREPL_PromptShowsStatus(t *testing.T) {
	lines := capturePrintln(t)

	runREPL(context.Background(), &fakeExec{}, func() string { return "(anonymous online)" }, rdr("status\n"))

	require.NotEmpty(t, *lines)
	require.Equal(t, "fk (anonymous online) > ", (*lines)[0])
}

func TestRunREPL_StopsWhenContextDone(t *testing.T) {
	capturePrintln(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	exec := &fakeExec{}
	runREPL(ctx, exec, func() string { return "s" }, rdr("login\n"))

	require.Empty(t, exec.calls)
}

func TestDaysArg(t *testing.T) {
	tests := []struct {
		args []string
		want int
		ok   bool
	}{
		{nil, 0, true},
		{[]string{"3"}, 3, true},
		{[]string{"0"}, 0, false},
		{[]string{"-1"}, 0, false},
		{[]string{"x"}, 0, false},
	}
	for _, tt := range tests {
		got, ok := daysArg(tt.args)
		require.Equal(t, tt.ok, ok, "args %v", tt.args)
		require.Equal(t, tt.want, got, "args %v", tt.args)
	}
}
