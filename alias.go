package lldpd

import (
	"github.com/pkg/errors"
)

// ErrAliasTooLong is returned when no non-empty alias fits the limit.
var ErrAliasTooLong = errors.New("lldpd: alias name does not fit buffer")

// GenerateAliasName derives the canonical alias for a port from the peer
// port ID and chassis ID, e.g. "port-003.dut". The result is truncated
// to maxLen-1 bytes, mirroring a C string buffer of maxLen bytes.
//
// When one of the identifiers is empty the other is used alone. Both
// identifiers empty, or a limit too small for a single byte, is an
// error.
func GenerateAliasName(portID, chassisID string, maxLen int) (string, error) {
	if portID == "" && chassisID == "" {
		return "", errors.Wrap(ErrAliasTooLong, "empty port and chassis identifiers")
	}
	if maxLen < 2 {
		return "", errors.Wrapf(ErrAliasTooLong, "limit %d", maxLen)
	}

	alias := portID
	switch {
	case portID == "":
		alias = chassisID
	case chassisID != "":
		alias = portID + "." + chassisID
	}

	if len(alias) > maxLen-1 {
		alias = alias[:maxLen-1]
	}
	return alias, nil
}
