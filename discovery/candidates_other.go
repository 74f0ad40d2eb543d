//go:build !linux && !darwin && !windows

package discovery

const platformPattern = "/dev/ttyU*"
