// Command objstore gets, puts, lists, removes and checks objects on any
// configured backend.
//
//	objstore [--config file] <get|put|ls|rm|exists> path [...]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mwantia/objectstore"
	"github.com/mwantia/objectstore/config"
	"github.com/mwantia/objectstore/log"
	"github.com/mwantia/objectstore/store"
	"github.com/spf13/pflag"
)

// errMissing makes exists exit non-zero without printing an error.
var errMissing = errors.New("missing")

type options struct {
	ConfigFile string
	LogLevel   string
}

func (o *options) Flags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("objstore", pflag.ContinueOnError)
	flags.SetInterspersed(false)
	flags.StringVar(&o.ConfigFile, "config", os.Getenv(store.ConfigEnv), "Path to the yaml configuration file.")
	flags.StringVar(&o.LogLevel, "log-level", "", "Overrides log.level from the configuration.")
	return flags
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := &Env{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}

	code := run(ctx, os.Args[1:], env, func(cfg *config.Config, logger *log.Logger) (objectstore.ObjectStore, error) {
		return store.New(ctx, cfg, config.WithLogger(logger))
	})
	stop()
	os.Exit(code)
}

// BuildFunc creates the store for a loaded configuration. Backends log
// through logger, which never writes to the command's stdout.
type BuildFunc func(cfg *config.Config, logger *log.Logger) (objectstore.ObjectStore, error)

// run executes one command and returns the process exit code.
func run(ctx context.Context, args []string, env *Env, build BuildFunc) int {
	o := &options{}
	flags := o.Flags()
	flags.SetOutput(env.Stderr)
	flags.Usage = func() {
		usage(env.Stderr, flags)
	}

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	rest := flags.Args()
	if len(rest) == 0 {
		usage(env.Stderr, flags)
		return 2
	}

	cmd := lookup(rest[0])
	if cmd == nil {
		fmt.Fprintf(env.Stderr, "objstore: unknown command %q\n", rest[0])
		usage(env.Stderr, flags)
		return 2
	}

	cmdFlags := cmd.Flags()
	cmdFlags.SetOutput(env.Stderr)
	if err := cmdFlags.Parse(rest[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := config.Load(o.ConfigFile)
	if err != nil {
		fmt.Fprintf(env.Stderr, "objstore: %v\n", err)
		return 1
	}
	if o.LogLevel != "" {
		cfg.Log.Level = o.LogLevel
	}

	logger, err := cfg.NewLogger("objstore", log.WithTerminal(env.Stderr))
	if err != nil {
		fmt.Fprintf(env.Stderr, "objstore: %v\n", err)
		return 1
	}

	st, err := build(cfg, logger)
	if err != nil {
		logger.Error("failed to configure object store", "error", err)
		return 1
	}

	if err := cmd.Execute(ctx, st, cmdFlags.Args(), env); err != nil {
		if !errors.Is(err, errMissing) {
			fmt.Fprintf(env.Stderr, "objstore %s: %v\n", cmd.Name(), err)
		}
		return 1
	}

	return 0
}

func lookup(name string) Command {
	for _, cmd := range commands() {
		if cmd.Name() == name {
			return cmd
		}
	}
	return nil
}

func usage(w io.Writer, flags *pflag.FlagSet) {
	var names []string
	for _, cmd := range commands() {
		names = append(names, "  objstore "+cmd.Usage())
	}

	fmt.Fprintf(w, "Usage: objstore [flags] <command> [args]\n\nCommands:\n%s\n\nFlags:\n%s",
		strings.Join(names, "\n"), flags.FlagUsages())
}
