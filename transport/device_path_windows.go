package transport

import (
	"fmt"
	"regexp"
	"strings"
)

var comPortName = regexp.MustCompile(`(?i)^(\\\\\.\\)?COM[1-9][0-9]*$`)

// checkDevicePath only validates the name. COM ports are not files, so their
// existence is left to the port open.
func checkDevicePath(path string) error {
	if !comPortName.MatchString(strings.TrimSpace(path)) {
		return fmt.Errorf("%q is not a COM port name", path)
	}
	return nil
}
