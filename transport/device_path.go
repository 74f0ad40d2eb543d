//go:build !windows

package transport

import "os"

// checkDevicePath reports an error if no device node exists at path.
func checkDevicePath(path string) error {
	_, err := os.Stat(path)
	return err
}
