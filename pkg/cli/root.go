package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Command represents a CLI command
type Command struct {
	Name        string
	Description string
	Run         func(args []string) error
	Subcommands map[string]*Command
	Flags       *flag.FlagSet
}

// Env carries the command output, logger and HTTP client
type Env struct {
	Out        io.Writer
	Logger     *logrus.Logger
	HTTPClient *http.Client
	// Getenv reads environment defaults for flags; os.Getenv when nil
	Getenv func(string) string
}

// NewEnv returns an environment writing to stdout and logging text to stderr
func NewEnv() *Env {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetLevel(logrus.InfoLevel)

	return &Env{
		Out:        os.Stdout,
		Logger:     logger,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Getenv:     os.Getenv,
	}
}

func (e *Env) env(key, fallback string) string {
	getenv := e.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv(key); v != "" {
		return v
	}
	return fallback
}

// NewRootCommand creates the root command
func NewRootCommand(env *Env) *Command {
	if env == nil {
		env = NewEnv()
	}
	root := &Command{
		Name:        "launchpad",
		Description: "Launchpad - billing and pricing CLI",
		Subcommands: make(map[string]*Command),
		Flags:       flag.NewFlagSet("launchpad", flag.ContinueOnError),
	}
	root.Flags.SetOutput(io.Discard)
	verbose := root.Flags.Bool("verbose", false, "Enable debug logging")

	root.Subcommands["price"] = newPriceCommand(env)
	root.Subcommands["catalog"] = newCatalogCommand(env)
	root.Subcommands["token"] = newTokenCommand(env)
	root.Subcommands["profile"] = newProfileCommand(env)
	root.Subcommands["buy-credits"] = newBuyCreditsCommand(env)

	root.Run = func(args []string) error {
		if err := root.Flags.Parse(args); err != nil {
			return err
		}
		if *verbose {
			env.Logger.SetLevel(logrus.DebugLevel)
		}

		rest := root.Flags.Args()
		if len(rest) == 0 || isHelp(rest[0]) {
			return root.usage(env.Out)
		}

		subcmd, ok := root.Subcommands[rest[0]]
		if !ok {
			return fmt.Errorf("unknown command: %s", rest[0])
		}
		env.Logger.WithField("command", subcmd.Name).Debug("Running command")
		err := subcmd.Run(rest[1:])
		if errors.Is(err, flag.ErrHelp) {
			return subcmd.usage(env.Out)
		}
		return err
	}

	return root
}

// Execute runs the command with os.Args
func (c *Command) Execute() error {
	return c.Run(os.Args[1:])
}

func isHelp(arg string) bool {
	switch strings.ToLower(arg) {
	case "-h", "--help", "help":
		return true
	}
	return false
}

// usage prints the command usage
func (c *Command) usage(w io.Writer) error {
	if len(c.Subcommands) == 0 {
		fmt.Fprintf(w, "Usage: launchpad %s [flags]\n\n%s\n\nFlags:\n", c.Name, c.Description)
		c.Flags.SetOutput(w)
		c.Flags.PrintDefaults()
		return nil
	}

	fmt.Fprintf(w, "Usage: %s [-verbose] <command> [args]\n\n", c.Name)
	fmt.Fprintf(w, "Commands:\n")
	names := make([]string, 0, len(c.Subcommands))
	for name := range c.Subcommands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-15s %s\n", name, c.Subcommands[name].Description)
	}
	return nil
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}
