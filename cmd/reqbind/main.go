package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/erraggy/reqbind"
	"github.com/erraggy/reqbind/cmd/reqbind/commands"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "version", "-v", "--version":
		fmt.Printf("reqbind v%s\n", reqbind.Version())
	case "help", "-h", "--help":
		printUsage()
	case "check":
		exitOnError(commands.HandleCheck(os.Args[2:]))
	case "bind":
		exitOnError(commands.HandleBind(os.Args[2:]))
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func exitOnError(err error) {
	if err == nil {
		return
	}
	// the report is already on stdout
	if !errors.Is(err, commands.ErrRejected) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(1)
}

func printUsage() {
	fmt.Println(`reqbind - Schema-driven HTTP request binding

Usage:
  reqbind <command> [options]

Commands:
  check       Compile a contract file and list its routes
  bind        Bind a request against a route contract
  version     Show version information
  help        Show this help message

Examples:
  reqbind check contracts.yaml
  reqbind bind --path '/items?limit=5' contracts.yaml
  reqbind bind -X POST --path /items --body item.json --content-type application/json contracts.yaml

Run 'reqbind <command> --help' for more information on a command.`)
}
