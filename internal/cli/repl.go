package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Refresh(ctx context.Context) error
	Profile(ctx context.Context) error
	Link(ctx context.Context) error
	Devices(ctx context.Context) error
	Start(ctx context.Context, args []string) error
	End(ctx context.Context) error
	Status(ctx context.Context) error
	Activities(ctx context.Context, args []string) error
	Metrics(ctx context.Context, args []string) error
}

// runREPL starts a simple read–eval–print loop for the FitSync CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help           — show available commands
//	  - register       — create an account
//	  - login          — authenticate
//	  - exit | quit    — leave the program
//
//	Logged in:
//	  - help                 — show available commands
//	  - link                 — link a Polar account from an authorization code
//	  - devices              — list linked devices
//	  - start <device> [type] — start a training session
//	  - end                  — end the active training session
//	  - status               — show the active training session
//	  - activities [n]       — list recent activities
//	  - metrics [type]       — list recent metrics
//	  - profile              — show the user profile
//	  - refresh              — refresh the credential session
//	  - logout               — log out
//	  - exit | quit          — leave the program
//
// Any errors returned by command handlers are ignored here; handlers should
// log their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("fitsync (%s) > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: link, devices, start, end, status, activities, metrics, profile, refresh, logout, exit")
			} else {
				printlnFn("Available commands: register, login, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "refresh":
			_ = a.Refresh(ctx)

		case "profile":
			_ = a.Profile(ctx)

		case "link":
			_ = a.Link(ctx)

		case "devices":
			_ = a.Devices(ctx)

		case "start":
			_ = a.Start(ctx, args)

		case "end":
			_ = a.End(ctx)

		case "status":
			_ = a.Status(ctx)

		case "activities":
			_ = a.Activities(ctx, args)

		case "metrics":
			_ = a.Metrics(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
