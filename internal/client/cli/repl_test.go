package cli

import (
	"bufio"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool
	calls    []string
	args     [][]string
}

func (f *fakeExec) record(name string, args []string) error {
	f.calls = append(f.calls, name)
	f.args = append(f.args, args)
	return nil
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Login(ctx context.Context, args []string) error {
	f.loggedIn = true
	return f.record("login", args)
}
func (f *fakeExec) Sessions(ctx context.Context, args []string) error { return f.record("sessions", args) }
func (f *fakeExec) NewSession(ctx context.Context, args []string) error {
	return f.record("new", args)
}
func (f *fakeExec) Join(ctx context.Context, args []string) error { return f.record("join", args) }
func (f *fakeExec) Leave(ctx context.Context, args []string) error { return f.record("leave", args) }
func (f *fakeExec) End(ctx context.Context, args []string) error { return f.record("end", args) }
func (f *fakeExec) Active(ctx context.Context, args []string) error { return f.record("active", args) }
func (f *fakeExec) AddPatient(ctx context.Context, args []string) error {
	return f.record("patient", args)
}
func (f *fakeExec) Board(ctx context.Context, args []string) error { return f.record("board", args) }
func (f *fakeExec) AddTask(ctx context.Context, args []string) error { return f.record("task", args) }
func (f *fakeExec) Toggle(ctx context.Context, args []string) error { return f.record("toggle", args) }
func (f *fakeExec) Cancel(ctx context.Context, args []string) error { return f.record("cancel", args) }
func (f *fakeExec) Complete(ctx context.Context, args []string) error {
	return f.record("complete", args)
}

func stubTerminal(t *testing.T, v bool) {
	orig := isTerminal
	isTerminal = func() bool { return v }
	t.Cleanup(func() { isTerminal = orig })
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	stubTerminal(t, false)

	input := strings.NewReader(strings.Join([]string{
		"sessions",
		"help",
		"login ayse",
		"",
		"new Gece nöbeti +mehmet",
		"b",
		"t task_1",
		"foobar",
		"complete patient_1",
		"exit",
		"sessions",
	}, "\n"))

	var printed []string
	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewScanner(input),
		func(v ...any) { printed = append(printed, toString(v)) })

	assert.Equal(t, []string{"login", "new", "board", "toggle", "complete"}, exec.calls)
	assert.Equal(t, []string{"Gece", "nöbeti", "+mehmet"}, exec.args[1])
	assert.Equal(t, []string{"task_1"}, exec.args[3])

	assert.Contains(t, printed, "Please log in first")
	assert.Contains(t, printed, helpLoggedOut)
	assert.Contains(t, printed, "Unknown command: foobar")
	assert.Equal(t, "Bye!", printed[len(printed)-1])
}

func TestRunREPL_PromptOnlyOnTerminal(t *testing.T) {
	stubTerminal(t, true)

	var printed []string
	exec := &fakeExec{loggedIn: true}
	runREPL(context.Background(), exec, func() string { return "(ayse online)" },
		bufio.NewScanner(strings.NewReader("help\n")),
		func(v ...any) { printed = append(printed, toString(v)) })

	assert.Equal(t, []string{"handover (ayse online)> ", helpLoggedIn, "handover (ayse online)> "}, printed)
	assert.Empty(t, exec.calls)
}

func toString(v []any) string {
	parts := make([]string, 0, len(v))
	for _, p := range v {
		parts = append(parts, p.(string))
	}
	return strings.Join(parts, " ")
}
