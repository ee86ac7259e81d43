//go:build !linux
// +build !linux

package cmd

// SetProcessName is a no-op on platforms without prctl.
func SetProcessName(name string) error {
	return nil
}
