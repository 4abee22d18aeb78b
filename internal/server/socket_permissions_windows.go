//go:build windows

package server

// setSocketPermissions is a no-op on Windows, where the named pipe carries
// its own security descriptor.
func setSocketPermissions(path string) {}
