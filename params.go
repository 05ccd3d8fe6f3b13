package main

import (
	"flag"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/alessio/shellescape"

	"github.com/apiqa/webhook-contract-tests/framework"
)

const defaultSettingsPath = "settings.yaml"

type commandParams struct {
	configPath string
	filters    framework.RegexFilters
	debug      bool
	debugAll   bool
	selfCheck  bool
}

func (c *commandParams) Read(args []string) bool {
	fs := flag.NewFlagSet("", flag.ExitOnError)
	fs.StringVar(&c.configPath, "config", defaultSettingsPath, "path to the settings file")
	fs.Var(&c.filters.MustMatch, "run", "regex pattern(s) to select tests to run")
	fs.Var(&c.filters.MustNotMatch, "skip", "regex pattern(s) to select tests not to run")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging for failed tests")
	fs.BoolVar(&c.debugAll, "debug-all", false, "enable debug logging for all tests")
	fs.BoolVar(&c.selfCheck, "selfcheck", false,
		"run the webhook delivery tests against an embedded capture service instead of the configured endpoints")

	if err := fs.Parse(args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return false
	}
	return true
}

type commandBuilder []string

func (b *commandBuilder) add(args ...string) {
	for _, a := range args {
		*b = append(*b, shellescape.Quote(a))
	}
}

func (b commandBuilder) String() string {
	return strings.Join(b, " ")
}

// rerunCommand builds a command line that reruns exactly the tests that
// failed in this run.
func rerunCommand(executable string, params commandParams, results framework.Results) string {
	var b commandBuilder
	b.add(executable)
	if params.configPath != defaultSettingsPath {
		b.add("-config", params.configPath)
	}
	if params.selfCheck {
		b.add("-selfcheck")
	}
	b.add("-debug")
	for _, failure := range results.Failures {
		b.add("-run", "^"+regexp.QuoteMeta(failure.TestID.String())+"$")
	}
	return b.String()
}
