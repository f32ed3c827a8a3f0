// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"strconv"
	"strings"

	"github.com/asaskevich/govalidator"
)

// MaxPrincipalLength bounds principal identifiers (account addresses, user IDs).
const MaxPrincipalLength = 128

// ValidPrincipal reports whether p is well-formed: 1 to MaxPrincipalLength
// printable ASCII characters with no whitespace.
func ValidPrincipal(p Principal) bool {
	s := string(p)
	if !govalidator.StringLength(s, "1", strconv.Itoa(MaxPrincipalLength)) {
		return false
	}
	return govalidator.IsPrintableASCII(s) && !govalidator.HasWhitespace(s)
}

func validCandidateName(name string) bool {
	return strings.TrimSpace(name) != ""
}
