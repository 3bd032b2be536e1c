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

// printFn writes the prompt without a trailing newline.
var printFn = fmt.Print

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	signedIn(ctx context.Context) bool
	SignUp(ctx context.Context, args []string) error
	SignIn(ctx context.Context, args []string) error
	Verify(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Demo(ctx context.Context) error
	SignOut(ctx context.Context) error
}

// runREPL starts a simple read-eval-print loop for the vaultkeeper CLI.
//
// It reads a line from reader, parses the first token as the command and
// dispatches to methods on a. Command errors are printed and the loop goes
// on. The loop exits on EOF, when ctx ends or when the user types "exit"
// or "quit".
//
// Commands:
//
//	signup <email> <full name...>   create an account and email a code
//	signin <email>                  email a sign-in code
//	verify                          enter the emailed code
//	whoami                          show the current user
//	demo                            sign in as the demo account
//	signout                         end the session
//	help, exit | quit
//
// Commands run with the same reader, so prompts inside a command consume
// the following lines.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printFn(fmt.Sprintf("vk %s> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
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
			if a.signedIn(ctx) {
				printlnFn("Available commands: whoami, signout, exit")
			} else {
				printlnFn("Available commands: signup <email> <full name>, signin <email>, verify, demo, exit")
			}

		case "signup":
			cmdErr = a.SignUp(ctx, args)

		case "signin":
			cmdErr = a.SignIn(ctx, args)

		case "verify":
			cmdErr = a.Verify(ctx)

		case "whoami":
			cmdErr = a.WhoAmI(ctx)

		case "demo":
			cmdErr = a.Demo(ctx)

		case "signout":
			cmdErr = a.SignOut(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", cmdErr.Error())
		}
		if err != nil {
			return
		}
	}
}
