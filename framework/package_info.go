// Package framework provides a generic mechanism for running a test suite
// outside of the Go test runner, with console reporting, regex-based test
// filtering, and captured debug output.
//
// It contains no knowledge of what is being tested; the contracttests
// package defines the actual suite on top of it.
package framework
