package discovery

import (
	"path/filepath"
	"slices"

	"go.bug.st/serial/enumerator"
)

var (
	listPorts        = enumerator.GetDetailedPortsList
	candidatePattern = platformPattern
)

// DefaultCandidatePaths returns the USB serial ports whose name matches the naming
// pattern of USB-serial adapters on this platform, sorted.
//
// If the ports cannot be enumerated, device nodes matching the pattern are globbed
// instead.
func DefaultCandidatePaths() []string {
	ports, err := listPorts()
	if err != nil {
		paths, _ := filepath.Glob(candidatePattern)
		slices.Sort(paths)

		return paths
	}

	paths := make([]string, 0, len(ports))
	for _, p := range ports {
		if !p.IsUSB {
			continue
		}
		if ok, _ := filepath.Match(candidatePattern, p.Name); ok {
			paths = append(paths, p.Name)
		}
	}
	slices.Sort(paths)

	return paths
}
