package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/teris-io/cli"
	"its-hmny.dev/toyc/pkg/toyc"
)

var Description = strings.ReplaceAll(`
The toyc compiler takes a program written in the toy C-like language and translates it
ahead-of-time into 32-bit ARM assembly text. The produced listing targets the conventional
ARM ABI (fp frame pointer, lr link register, return value and first four arguments in
r0-r3) and can be assembled and linked against a libc providing 'putchar' by an external
toolchain (e.g. 'arm-linux-gnueabihf-gcc').
`, "\n", " ")

var ToycCompiler = cli.New(Description).
	WithArg(cli.NewArg("input", "The toy language source file to be compiled")).
	WithArg(cli.NewArg("output", "The ARM assembly output (.s)")).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	input, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Printf("ERROR: Unable to open input file: %s\n", err)
		return -1
	}

	output, err := os.Create(args[1])
	if err != nil {
		fmt.Printf("ERROR: Unable to open output file: %s\n", err)
		return -1
	}
	defer output.Close()

	// Instantiate a parser for the toy language program
	parser := toyc.NewParser(bytes.NewReader(input))
	// Parses the input file content and extracts the program AST from it.
	program, err := parser.Parse()
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'parsing' pass: %s\n", err)
		return -1
	}

	// Now, instantiates a code generator for the parsed program
	codegen := toyc.NewCodeGenerator(program)
	// Walks the AST depth first and spits out one ARM assembly line per instruction.
	compiled, err := codegen.Generate()
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'codegen' pass: %s\n", err)
		return -1
	}

	for _, line := range compiled {
		output.Write([]byte(fmt.Sprintf("%s\n", line)))
	}

	return 0
}

func main() { os.Exit(ToycCompiler.Run(os.Args, os.Stdout)) }
