// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so the ledger can tell an empty store or a lost race apart from an
// outage.
//
//   - ErrNotFound: nothing has been persisted yet
//   - ErrConflict: the write does not follow the persisted state (sequence gap,
//     duplicate row)
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)
