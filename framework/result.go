package framework

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

type Results struct {
	Tests    []TestResult
	Failures []TestResult
	Skipped  []TestResult
}

type TestResult struct {
	TestID  TestID
	Errors  []error
	Skipped bool
}

func (r Results) OK() bool {
	return len(r.Failures) == 0
}

type TestID struct {
	Path []string
}

func (t TestID) String() string {
	return strings.Join(t.Path, "/")
}

type TestFailure struct {
	ID  TestID
	Err error
}

func (f TestFailure) Error() string {
	return fmt.Sprintf("[%s]: %s", f.ID, f.Err)
}

// PrintResults writes a summary of the test run to dest, listing every
// failed test with its errors.
func PrintResults(dest io.Writer, results Results) {
	if results.OK() {
		color.New(color.FgGreen, color.Bold).Fprintf(dest, "All tests passed")
		fmt.Fprintf(dest, " (%d run, %d skipped)\n", len(results.Tests), len(results.Skipped))
		return
	}

	color.New(color.FgRed, color.Bold).Fprintf(dest, "FAILED TESTS (%d):\n", len(results.Failures))
	for _, f := range results.Failures {
		color.New(color.FgRed).Fprintf(dest, "* %s\n", f.TestID)
		for _, err := range f.Errors {
			for _, line := range strings.Split(err.Error(), "\n") {
				fmt.Fprintf(dest, "    %s\n", line)
			}
		}
	}
	fmt.Fprintf(dest, "\n%d of %d tests failed (%d skipped)\n",
		len(results.Failures), len(results.Tests), len(results.Skipped))
}

// reformatError cleans up the multi-line error messages produced by the
// assertion helpers so they indent consistently in console output.
func reformatError(err error) error {
	lines := strings.Split(strings.TrimRight(err.Error(), "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(strings.ReplaceAll(line, "\t", "  "), " ")
	}
	return fmt.Errorf("%s", strings.Join(lines, "\n"))
}
