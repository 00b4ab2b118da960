// Command trustdump reads Trusted class attributes from files and
// keeps them in a local store.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/i5heu/ouroboros-trusted/internal/attrstore"
	"github.com/i5heu/ouroboros-trusted/internal/config"
	"github.com/i5heu/ouroboros-trusted/pkg/classattr"
	"github.com/i5heu/ouroboros-trusted/pkg/logging"
	"github.com/i5heu/ouroboros-trusted/pkg/trusted"
	"github.com/i5heu/ouroboros-trusted/pkg/trustfmt"
)

const (
	logKeyCommand = "command"
	logKeyConfig  = "config"
	logKeyFile    = "file"
	logKeyClass   = "class"
	logKeyStore   = "store"
	logKeySignal  = "signal"
	logKeyError   = "error"
)

var errUsage = errors.New(
	"usage: trustdump [-config file] dump <file> | put <class> <file> | " +
		"get <class> | list [prefix] | sample <out>",
)

func main() { // A
	configPath := flag.String("config", config.DefaultPath, "path to YAML config")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Logger.Error("failed to load config", logKeyError, err)
		os.Exit(1)
	}

	level := logging.ParseLevel(cfg.LogLevel)
	if *debug {
		level = slog.LevelDebug
	}
	logger := logging.Configure(level, cfg.NoColor)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.InfoContext(ctx, "received signal", logKeySignal, sig.String())
		cancel()
	}()

	logger.DebugContext(ctx, "config loaded", logKeyConfig, *configPath)

	if err := run(ctx, cfg, logger, os.Stdout, flag.Args()); err != nil {
		logger.ErrorContext(ctx, "trustdump failed",
			logKeyCommand, flag.Arg(0),
			logKeyError, err)
		os.Exit(1)
	}
}

// run dispatches one subcommand. Output meant for the user goes to
// stdout, diagnostics to logger.
func run( // A
	ctx context.Context,
	cfg config.Config,
	logger *slog.Logger,
	stdout io.Writer,
	args []string,
) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, args := args[0], args[1:]

	switch cmd {
	case "dump":
		if len(args) != 1 {
			return errUsage
		}
		return dump(ctx, cfg, logger, stdout, args[0])
	case "sample":
		if len(args) != 1 {
			return errUsage
		}
		return writeSample(ctx, cfg, logger, args[0])
	case "put", "get", "list":
	default:
		return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.WarnContext(ctx, "closing store", logKeyError, err)
		}
	}()

	switch cmd {
	case "put":
		if len(args) != 2 {
			return errUsage
		}
		return put(ctx, cfg, logger, store, args[0], args[1])
	case "get":
		if len(args) != 1 {
			return errUsage
		}
		return get(store, cfg, stdout, args[0])
	default:
		if len(args) > 1 {
			return errUsage
		}
		prefix := ""
		if len(args) == 1 {
			prefix = args[0]
		}
		return list(store, stdout, prefix)
	}
}

func openStore(cfg config.Config) (*attrstore.Store, error) {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}
	return attrstore.Open(attrstore.Config{
		Path:          cfg.StorePath,
		InMemory:      cfg.InMemory,
		MinimumFreeGB: cfg.MinimumFreeGB,
		Logger:        log,
	})
}

func classNames(cfg config.Config) trustfmt.ClassNames {
	return trustfmt.ClassNames{
		Interfaces: cfg.Interfaces,
		Superclass: cfg.Superclass,
	}
}

func dump(
	ctx context.Context,
	cfg config.Config,
	logger *slog.Logger,
	stdout io.Writer,
	path string,
) error {
	attrs, err := readClassFile(path, cfg, logger)
	if err != nil {
		return err
	}
	logger.DebugContext(ctx, "read attribute table",
		logKeyFile, path,
		"count", len(attrs))

	for _, a := range attrs {
		switch {
		case a.Trusted != nil:
			err = trustfmt.Write(stdout, a.Trusted, classNames(cfg), trustfmt.Options{})
		case a.Err != nil:
			_, err = fmt.Fprintf(stdout, "%s attribute (%d bytes): invalid: %v\n",
				a.Name, a.Length, a.Err)
		default:
			_, err = fmt.Fprintf(stdout, "%s attribute (%d bytes)\n", a.Name, a.Length)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func put(
	ctx context.Context,
	cfg config.Config,
	logger *slog.Logger,
	store *attrstore.Store,
	className, path string,
) error {
	attrs, err := readClassFile(path, cfg, logger)
	if err != nil {
		return err
	}
	a, ok := classattr.Trusted(attrs)
	if !ok {
		return fmt.Errorf("%s has no valid %s attribute", path, trusted.AttributeName)
	}
	if err := store.Put(className, a); err != nil {
		return err
	}
	logger.InfoContext(ctx, "stored attribute",
		logKeyClass, className,
		logKeyFile, path,
		logKeyStore, cfg.StorePath)
	return nil
}

func get(
	store *attrstore.Store,
	cfg config.Config,
	stdout io.Writer,
	className string,
) error {
	a, err := store.Get(className)
	if err != nil {
		return err
	}
	return trustfmt.Write(stdout, a, classNames(cfg), trustfmt.Options{})
}

func list(store *attrstore.Store, stdout io.Writer, prefix string) error {
	names, err := store.List(prefix)
	if err != nil {
		return err
	}
	for _, name := range names {
		if _, err := fmt.Fprintln(stdout, name); err != nil {
			return err
		}
	}
	return nil
}
