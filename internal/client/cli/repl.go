package cli

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/foodkeeper/internal/client/client"
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
	Status(ctx context.Context) error
	Whoami(ctx context.Context) error
	ListItems(ctx context.Context, opts client.ListOptions) error
	GetItem(ctx context.Context, id string) error
	AddItemInteractive(ctx context.Context) error
	UpdateItem(ctx context.Context, id string, pairs []string) error
	DeleteItem(ctx context.Context, id string) error
	Expiring(ctx context.Context, days int) error
	Barcode(ctx context.Context, code string, save bool) error
	Analyze(ctx context.Context, path string, save bool) error
	Dashboard(ctx context.Context, days int) error
}

// runREPL starts a simple read–eval–print loop for the FoodKeeper CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. The loop exits on EOF, when ctx is done, or
// when the user types "exit" or "quit". Protected commands go through the
// gate inside 'a', so without a session they start the login flow.
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Always:
//	  - help                       show available commands
//	  - register | login | logout  manage the session
//	  - status                     show session status
//	  - exit | quit                leave the program
//
//	Logged in:
//	  - whoami                     show the current user
//	  - (l)ist [category]          list items
//	  - get <id>                   show one item
//	  - add                        add an item (interactive)
//	  - update <id> [k=v ...]      change fields of an item
//	  - delete <id>                delete an item
//	  - expiring [days]            items expiring soon
//	  - barcode <code> [save]      look up a barcode
//	  - analyze <path> [save]      recognize an item on a photo
//	  - dashboard [days]           inventory and expiring items
//
// Errors returned by command handlers are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for ctx.Err() == nil {
		printlnFn(fmt.Sprintf("fk %s > ", statusFn()))
		line, err := readLine(reader)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: whoami, (l)ist, get, add, update, delete, expiring, barcode, analyze, dashboard, status, logout, exit")
			} else {
				printlnFn("Available commands: register, login, status, exit")
			}

		case "register":
			cmdErr = a.Register(ctx)

		case "login":
			cmdErr = a.Login(ctx)

		case "logout":
			cmdErr = a.Logout(ctx)

		case "status":
			cmdErr = a.Status(ctx)

		case "whoami":
			cmdErr = a.Whoami(ctx)

		case "l", "list":
			var opts client.ListOptions
			if len(args) > 0 {
				opts.Category = args[0]
			}
			cmdErr = a.ListItems(ctx, opts)

		case "get", "delete":
			if len(args) == 0 {
				printlnFn("Usage:", cmd, "<id>")
				continue
			}
			if cmd == "get" {
				cmdErr = a.GetItem(ctx, args[0])
			} else {
				cmdErr = a.DeleteItem(ctx, args[0])
			}

		case "add":
			cmdErr = a.AddItemInteractive(ctx)

		case "update":
			if len(args) == 0 {
				printlnFn("Usage: update <id> [name=value ...]")
				continue
			}
			cmdErr = a.UpdateItem(ctx, args[0], args[1:])

		case "expiring", "dashboard":
			days, ok := daysArg(args)
			if !ok {
				printlnFn("Usage:", cmd, "[days]")
				continue
			}
			if cmd == "expiring" {
				cmdErr = a.Expiring(ctx, days)
			} else {
				cmdErr = a.Dashboard(ctx, days)
			}

		case "barcode", "analyze":
			if len(args) == 0 || len(args) > 2 || (len(args) == 2 && args[1] != "save") {
				printlnFn("Usage:", cmd, "<arg> [save]")
				continue
			}
			save := len(args) == 2
			if cmd == "barcode" {
				cmdErr = a.Barcode(ctx, args[0], save)
			} else {
				cmdErr = a.Analyze(ctx, args[0], save)
			}

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", cmdErr)
		}
	}
}

// daysArg parses an optional positive day count; 0 means the default.
func daysArg(args []string) (int, bool) {
	if len(args) == 0 {
		return 0, true
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
