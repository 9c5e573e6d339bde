package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. App satisfies
// it; tests provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Grant(ctx context.Context, args []string) error
	Record(ctx context.Context, args []string) error
	Audit(ctx context.Context) error
	Key(ctx context.Context, args []string) error
	Status(ctx context.Context) error
}

const (
	helpLoggedOut = "Available commands: register, login, key import, status, exit"
	helpLoggedIn  = "Available commands: grant create [ttl] | revoke <id|token> | list | validate <code>, " +
		"record add | view <code> [id...], audit, key export | enroll <sample> | unlock [sample], status, logout, exit"
)

// runREPL reads one command per line from scanner and dispatches it to a.
// The loop ends on EOF or "exit"/"quit". A failing command prints its error
// and the loop carries on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("sehati %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpLoggedOut)
			}

		case "register":
			err = a.Register(ctx)

		case "login":
			err = a.Login(ctx)

		case "logout":
			err = a.Logout(ctx)

		case "grant":
			err = a.Grant(ctx, args)

		case "record":
			err = a.Record(ctx, args)

		case "audit":
			err = a.Audit(ctx)

		case "key":
			err = a.Key(ctx, args)

		case "status":
			err = a.Status(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err.Error())
		}
	}
}

// usageError is returned by command handlers for malformed arguments.
type usageError string

func (u usageError) Error() string {
	return "usage: " + string(u)
}
