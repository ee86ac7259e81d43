//go:build !linux
// +build !linux

package firewall

import "fmt"

// Run is unsupported off Linux.
func (r *RealCommandRunner) Run(name string, args ...string) error {
	return fmt.Errorf("command execution not supported on this platform")
}

// Output is unsupported off Linux.
func (r *RealCommandRunner) Output(name string, args ...string) ([]byte, error) {
	return nil, fmt.Errorf("command execution not supported on this platform")
}

// RunInput is unsupported off Linux.
func (r *RealCommandRunner) RunInput(input string, name string, args ...string) error {
	return fmt.Errorf("command execution not supported on this platform")
}
