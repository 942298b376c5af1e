package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"its-hmny.dev/toyc/pkg/toyc"
)

// Color pairing for the interactive session: assembly in yellow, diagnostics
// in red, everything informational in cyan.
var (
	cyanColor   = color.New(color.FgCyan)
	redColor    = color.New(color.FgRed)
	yellowColor = color.New(color.FgYellow)
)

// Compiles the program typed on a single line and prints its assembly listing,
// or the parse/codegen diagnostic when the compilation fails.
func compileLine(line string) {
	compiled, err := toyc.Compile(line)
	if err != nil {
		redColor.Fprintf(os.Stdout, "%s\n", err)
		return
	}

	for _, asm := range compiled {
		yellowColor.Fprintf(os.Stdout, "%s\n", asm)
	}
}

func main() {
	rl, err := readline.New("toyc >>> ")
	if err != nil {
		fmt.Printf("ERROR: Unable to initialize the line editor: %s\n", err)
		os.Exit(-1)
	}
	defer rl.Close()

	cyanColor.Fprintln(os.Stdout, "toyc interactive compiler (one program per line)")
	cyanColor.Fprintln(os.Stdout, "Type 'exit' or press Ctrl-D to leave, arrow keys browse the history")

	for {
		line, err := rl.Readline()
		// Ctrl-C clears the current line, Ctrl-D ends the session
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF || strings.TrimSpace(line) == "exit" {
			break
		}

		if strings.TrimSpace(line) == "" {
			continue
		}
		compileLine(line)
	}
}
