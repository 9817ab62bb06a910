package main

import (
	"flag"
	"fmt"
	"os"
)

// command is a single CLI subcommand with its own flag set.
type command struct {
	Name        string
	Description string
	Flags       *flag.FlagSet
	Run         func(args []string) error
}

// rootCommand dispatches to one of a fixed set of subcommands.
type rootCommand struct {
	Name        string
	Subcommands map[string]*command
}

func newRootCommand() *rootCommand {
	root := &rootCommand{
		Name:        "registry-cli",
		Subcommands: make(map[string]*command),
	}

	root.Subcommands["apply"] = newApplyCommand()
	root.Subcommands["dump"] = newDumpCommand()

	return root
}

func (r *rootCommand) Execute() error {
	args := os.Args[1:]
	if len(args) == 0 {
		return r.usage()
	}
	if args[0] == "-h" || args[0] == "--help" {
		return r.usage()
	}
	if cmd, ok := r.Subcommands[args[0]]; ok {
		return cmd.Run(args[1:])
	}
	return fmt.Errorf("unknown command: %s", args[0])
}

func (r *rootCommand) usage() error {
	fmt.Printf("Usage: %s <command> [args]\n\n", r.Name)
	fmt.Printf("Commands:\n")
	for name, cmd := range r.Subcommands {
		fmt.Printf("  %-10s %s\n", name, cmd.Description)
	}
	return nil
}
