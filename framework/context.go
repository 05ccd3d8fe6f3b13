package framework

import (
	"errors"
	"fmt"
	"runtime/debug"
)

type environment struct {
	results    Results
	testLogger TestLogger
	filter     Filter
}

// Context represents the state of a single test or subtest while it is
// running. It fills the same role as testing.T, but outside of the Go test
// runner, so the harness can do its own filtering, reporting, and exit code
// handling.
type Context struct {
	env         *environment
	id          TestID
	debugLogger CapturingLogger
	failed      bool
	skipped     bool
	skipReason  string
	errors      []error
	cleanups    []func()
}

// Run executes a top-level test action, returning the accumulated results of
// it and all of its subtests.
func Run(
	filter Filter,
	testLogger TestLogger,
	action func(*Context),
) Results {
	if testLogger == nil {
		testLogger = nullTestLogger{}
	}
	env := &environment{
		filter:     filter,
		testLogger: testLogger,
	}
	c := &Context{env: env}
	c.run(action)
	return env.results
}

func (c *Context) run(action func(*Context)) {
	defer func() {
		if r := recover(); r != nil {
			if c.skipped {
				c.runCleanups()
				return
			}
			c.failed = true
			var addError error
			if _, ok := r.(*Context); ok {
				if len(c.errors) == 0 {
					addError = errors.New("test failed with no failure message")
				}
			} else {
				addError = fmt.Errorf("unexpected panic in test: %+v\n%s", r, string(debug.Stack()))
			}
			if addError != nil {
				c.errors = append(c.errors, addError)
				c.env.testLogger.TestError(c.id, addError)
			}
		}
		c.runCleanups()
		result := TestResult{TestID: c.id, Errors: c.errors}
		c.env.results.Tests = append(c.env.results.Tests, result)
		if c.failed {
			c.env.results.Failures = append(c.env.results.Failures, result)
		}
	}()

	action(c)
}

func (c *Context) runCleanups() {
	cleanups := c.cleanups
	c.cleanups = nil
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
}

// ID returns the full path of the current test.
func (c *Context) ID() TestID {
	return c.id
}

// Run executes a subtest, unless it is excluded by the filter.
func (c *Context) Run(name string, action func(*Context)) {
	id := TestID{Path: append(append([]string(nil), c.id.Path...), name)}

	c.env.testLogger.TestStarted(id)
	if c.env.filter != nil && !c.env.filter(id) {
		c.env.testLogger.TestSkipped(id, "excluded by filter parameters")
		c.env.results.Skipped = append(c.env.results.Skipped, TestResult{TestID: id, Skipped: true})
		return
	}
	c1 := &Context{
		id:  id,
		env: c.env,
	}
	c1.run(action)
	if c1.skipped {
		c.env.testLogger.TestSkipped(id, c1.skipReason)
		c.env.results.Skipped = append(c.env.results.Skipped, TestResult{TestID: id, Skipped: true})
	} else {
		c.env.testLogger.TestFinished(id, c1.failed, c1.debugLogger.Output())
	}
}

// Errorf records a test failure without terminating the test. The assert
// package calls this when assertions are made against a test scope.
func (c *Context) Errorf(format string, args ...interface{}) {
	c.failed = true
	err := fmt.Errorf(format, args...)
	c.errors = append(c.errors, err)
	c.env.testLogger.TestError(c.id, reformatError(err))
}

// FailNow terminates the current test immediately. The require package calls
// this when a required assertion fails.
func (c *Context) FailNow() {
	panic(c)
}

// Skip terminates the current test immediately without marking it failed.
func (c *Context) Skip() {
	c.skipped = true
	panic(c)
}

func (c *Context) SkipWithReason(reason string) {
	c.skipReason = reason
	c.Skip()
}

// Defer registers a cleanup function to run when the test ends, whether it
// passed, failed, or was skipped. Cleanups run in reverse order of
// registration.
func (c *Context) Defer(cleanup func()) {
	c.cleanups = append(c.cleanups, cleanup)
}

// Debug adds a message to the test's debug output, which the test logger may
// print at the end of the test.
func (c *Context) Debug(message string, args ...interface{}) {
	c.debugLogger.Printf(message, args...)
}

func (c *Context) DebugLogger() Logger {
	return &c.debugLogger
}
