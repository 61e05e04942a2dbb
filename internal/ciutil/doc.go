// Package ciutil detects CI environments and resolves the environment
// variables test tooling depends on.
package ciutil
