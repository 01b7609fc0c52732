package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Navigate(ctx context.Context, path string) error
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Show(ctx context.Context) error
	Add(ctx context.Context) error
	Edit(ctx context.Context, id string) error
	Fix(ctx context.Context) error
	Submit(ctx context.Context) error
	Cancel(ctx context.Context) error
	Delete(ctx context.Context, id string) error
	Expand(ctx context.Context, id string) error
	Refresh(ctx context.Context) error
}

// shortcuts map single-word commands to screens.
var shortcuts = map[string]string{
	"dashboard": "/dashboard",
	"customers": "/dashboard/customers",
	"recipes":   "/dashboard/recipes",
	"public":    "/recipes",
}

// runREPL reads commands from in until EOF or "exit"/"quit" and dispatches
// them to a. The prompt shows statusFn.
//
//	Always:
//	  help | go <path> | public | refresh | (l)ist | exit | quit
//	Signed out:
//	  login | register
//	Signed in:
//	  dashboard | customers | recipes | logout
//	On customers and recipes:
//	  add | edit <id> | fix | submit | cancel | delete <id>
//	On public recipes:
//	  expand <id>
//
// Errors returned by command handlers are reported by the handlers
// themselves; the loop keeps going.
func runREPL(ctx context.Context, a execIface, statusFn func() string, in *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("restaurant %s> ", statusFn()))
		line, err := in.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, arg := parts[0], ""
		if len(parts) > 1 {
			arg = parts[1]
		}

		if path, ok := shortcuts[cmd]; ok {
			_ = a.Navigate(ctx, path)
			continue
		}

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: dashboard, customers, recipes, public, go <path>, (l)ist, refresh, add, edit <id>, fix, submit, cancel, delete <id>, expand <id>, logout, exit")
			} else {
				printlnFn("Available commands: login, register, public, go <path>, (l)ist, refresh, expand <id>, exit")
			}

		case "go":
			_ = a.Navigate(ctx, arg)

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "l", "list":
			_ = a.Show(ctx)

		case "refresh":
			_ = a.Refresh(ctx)

		case "add":
			_ = a.Add(ctx)

		case "edit":
			_ = a.Edit(ctx, arg)

		case "fix":
			_ = a.Fix(ctx)

		case "submit":
			_ = a.Submit(ctx)

		case "cancel":
			_ = a.Cancel(ctx)

		case "delete":
			_ = a.Delete(ctx, arg)

		case "expand":
			_ = a.Expand(ctx, arg)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			return
		}
	}
}
