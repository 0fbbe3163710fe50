package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// execIface is the command surface the REPL dispatches to. The real App
// type satisfies it; tests use a stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context, args []string) error
	Sessions(ctx context.Context, args []string) error
	NewSession(ctx context.Context, args []string) error
	Join(ctx context.Context, args []string) error
	Leave(ctx context.Context, args []string) error
	End(ctx context.Context, args []string) error
	Active(ctx context.Context, args []string) error
	AddPatient(ctx context.Context, args []string) error
	Board(ctx context.Context, args []string) error
	AddTask(ctx context.Context, args []string) error
	Toggle(ctx context.Context, args []string) error
	Cancel(ctx context.Context, args []string) error
	Complete(ctx context.Context, args []string) error
}

const (
	helpLoggedOut = "Available commands: login <username>, exit"
	helpLoggedIn  = "Available commands: sessions, new <name> [+user...], join <id>, leave, end, active, " +
		"patient <tcNo> [name], board, task <patientId> <name>, toggle <taskId>, cancel <taskId>, complete <patientId>, exit"
)

// runREPL reads commands from scanner until EOF or "exit"/"quit". Command
// errors are reported by the handlers themselves.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner, printFn func(...any)) {
	for {
		if isTerminal() {
			printFn(fmt.Sprintf("handover %s> ", statusFn()))
		}
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if cmd == "exit" || cmd == "quit" {
			printFn("Bye!")
			return
		}

		if cmd == "help" {
			if a.isLoggedIn() {
				printFn(helpLoggedIn)
			} else {
				printFn(helpLoggedOut)
			}
			continue
		}

		if cmd != "login" && !a.isLoggedIn() {
			printFn("Please log in first")
			continue
		}

		var handler func(context.Context, []string) error
		switch cmd {
		case "login":
			handler = a.Login
		case "sessions", "ls":
			handler = a.Sessions
		case "new":
			handler = a.NewSession
		case "join":
			handler = a.Join
		case "leave":
			handler = a.Leave
		case "end":
			handler = a.End
		case "active":
			handler = a.Active
		case "patient":
			handler = a.AddPatient
		case "board", "b":
			handler = a.Board
		case "task":
			handler = a.AddTask
		case "toggle", "t":
			handler = a.Toggle
		case "cancel":
			handler = a.Cancel
		case "complete":
			handler = a.Complete
		default:
			printFn("Unknown command:", cmd)
			continue
		}

		_ = handler(ctx, args)
	}
}
