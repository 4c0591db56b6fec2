package main

import (
	"context"
	"fmt"
	"io"

	"github.com/mwantia/objectstore"
	"github.com/spf13/pflag"
)

// Command is a single objstore subcommand.
type Command interface {
	// Name returns the command identifier
	Name() string

	// Usage returns a usage string for help (e.g. "ls [-r] path")
	Usage() string

	// Flags returns the flag set for this command
	Flags() *pflag.FlagSet

	// Execute runs the command against store with the remaining positional arguments.
	Execute(ctx context.Context, store objectstore.ObjectStore, args []string, env *Env) error
}

// Env carries the standard streams of a command.
type Env struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func commands() []Command {
	return []Command{
		&getCommand{},
		&putCommand{},
		&lsCommand{},
		&rmCommand{},
		&existsCommand{},
	}
}

func requireArgs(cmd Command, args []string, n int) error {
	if len(args) != n {
		return fmt.Errorf("usage: objstore %s", cmd.Usage())
	}
	return nil
}

type getCommand struct{}

func (*getCommand) Name() string  { return "get" }
func (*getCommand) Usage() string { return "get path" }

func (c *getCommand) Flags() *pflag.FlagSet {
	return pflag.NewFlagSet(c.Name(), pflag.ContinueOnError)
}

// Execute streams the object to stdout through a read handle.
func (c *getCommand) Execute(ctx context.Context, store objectstore.ObjectStore, args []string, env *Env) error {
	if err := requireArgs(c, args, 1); err != nil {
		return err
	}

	return objectstore.WithHandle(ctx, store, args[0], objectstore.ModeReadBinary, func(h objectstore.Handle) error {
		_, err := io.Copy(env.Stdout, h)
		return err
	})
}

type putCommand struct{}

func (*putCommand) Name() string  { return "put" }
func (*putCommand) Usage() string { return "put path < data" }

func (c *putCommand) Flags() *pflag.FlagSet {
	return pflag.NewFlagSet(c.Name(), pflag.ContinueOnError)
}

// Execute copies stdin into the object through a write handle.
func (c *putCommand) Execute(ctx context.Context, store objectstore.ObjectStore, args []string, env *Env) error {
	if err := requireArgs(c, args, 1); err != nil {
		return err
	}

	return objectstore.WithHandle(ctx, store, args[0], objectstore.ModeWriteBinary, func(h objectstore.Handle) error {
		_, err := io.Copy(h, env.Stdin)
		return err
	})
}

type lsCommand struct {
	recursive bool
	prefix    string
}

func (*lsCommand) Name() string  { return "ls" }
func (*lsCommand) Usage() string { return "ls [-r] [--prefix name] path" }

func (c *lsCommand) Flags() *pflag.FlagSet {
	flags := pflag.NewFlagSet(c.Name(), pflag.ContinueOnError)
	flags.BoolVarP(&c.recursive, "recursive", "r", false, "List every object beneath path.")
	flags.StringVar(&c.prefix, "prefix", "", "Only list children whose name starts with prefix.")
	return flags
}

func (c *lsCommand) Execute(ctx context.Context, store objectstore.ObjectStore, args []string, env *Env) error {
	if err := requireArgs(c, args, 1); err != nil {
		return err
	}

	paths, err := store.List(ctx, args[0], &objectstore.Query{
		Prefix:    c.prefix,
		Recursive: c.recursive,
	})
	if err != nil {
		return err
	}

	for _, path := range paths {
		fmt.Fprintln(env.Stdout, path)
	}
	return nil
}

type rmCommand struct {
	recursive bool
}

func (*rmCommand) Name() string  { return "rm" }
func (*rmCommand) Usage() string { return "rm [-r] path" }

func (c *rmCommand) Flags() *pflag.FlagSet {
	flags := pflag.NewFlagSet(c.Name(), pflag.ContinueOnError)
	flags.BoolVarP(&c.recursive, "recursive", "r", false, "Remove everything beneath path.")
	return flags
}

func (c *rmCommand) Execute(ctx context.Context, store objectstore.ObjectStore, args []string, env *Env) error {
	if err := requireArgs(c, args, 1); err != nil {
		return err
	}

	return store.Remove(ctx, args[0], c.recursive)
}

type existsCommand struct{}

func (*existsCommand) Name() string  { return "exists" }
func (*existsCommand) Usage() string { return "exists path [path...]" }

func (c *existsCommand) Flags() *pflag.FlagSet {
	return pflag.NewFlagSet(c.Name(), pflag.ContinueOnError)
}

// Execute prints the paths that exist and fails if any is missing.
func (c *existsCommand) Execute(ctx context.Context, store objectstore.ObjectStore, args []string, env *Env) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: objstore %s", c.Usage())
	}

	existing, err := store.ExistsBatch(ctx, args)
	if err != nil {
		return err
	}

	for _, path := range existing {
		fmt.Fprintln(env.Stdout, path)
	}
	if len(existing) != len(args) {
		return errMissing
	}
	return nil
}
