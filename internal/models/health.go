package models

import "time"

// HealthState is the persisted bookkeeping of the ledger circuit breaker.
// Zero times mean "not set".
type HealthState struct {
	ForcedOffline bool      `json:"forced_offline"`
	LastOK        time.Time `json:"last_ok,omitempty"`
	FirstFail     time.Time `json:"first_fail,omitempty"`
	Offline       bool      `json:"offline"`
	OfflineSince  time.Time `json:"offline_since,omitempty"`
}
