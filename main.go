package main

import (
	"fmt"
	"os"

	"github.com/alexflint/go-arg"
	"github.com/rs/zerolog"

	tester "github.com/canonical/loki-tester/src"
	"github.com/canonical/loki-tester/src/config"
)

var buildVersion = "dev"
var buildCommit = "dirty"

func main() {
	args := &CLI{}
	parser, err := parseArgs(args)
	abort(parser, err)

	logger := config.ConfigureLogger(args.Debug)

	abort(parser, Run(parser, args, logger))
}

type CLI struct {
	Debug    bool                `arg:"--debug,env:LOKI_TESTER_DEBUG" help:"debugging output"`
	Dispatch *tester.DispatchCmd `arg:"subcommand:dispatch" help:"handle the current hook or action"`
	Rules    *tester.RulesCmd    `arg:"subcommand:rules" help:"render and validate alert rules"`
}

func Version() string {
	return fmt.Sprintf("%s (%s)", buildVersion, buildCommit)
}

func (CLI) Version() string {
	return fmt.Sprintf("loki-tester %s", Version())
}

func abort(parser *arg.Parser, err error) {
	switch err {
	case nil:
		return
	case arg.ErrHelp:
		parser.WriteHelp(os.Stderr)
		os.Exit(0)
	case arg.ErrVersion:
		fmt.Fprintln(os.Stdout, Version())
		os.Exit(0)
	default:
		fmt.Fprint(os.Stderr, err, "\n")
		os.Exit(1)
	}
}

func parseArgs(args *CLI) (parser *arg.Parser, err error) {
	parser, err = arg.NewParser(arg.Config{}, args)
	if err != nil {
		return
	}

	err = parser.Parse(os.Args[1:])
	return
}

func Run(parser *arg.Parser, args *CLI, logger *zerolog.Logger) error {
	switch {
	case args.Dispatch != nil:
		return args.Dispatch.Run(logger)
	case args.Rules != nil:
		return args.Rules.Run(logger)
	default:
		// Juju runs the charm's dispatch script without arguments.
		return (&tester.DispatchCmd{}).Run(logger)
	}
}
