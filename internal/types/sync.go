package types

// SyncState describes local history relative to its remote counterpart.
type SyncState string

const (
	SyncUpToDate      SyncState = "UpToDate"
	SyncAheadOfRemote SyncState = "AheadOfRemote"
	SyncBehindRemote  SyncState = "BehindRemote"
	SyncDiverged      SyncState = "Diverged"
	SyncNoRemote      SyncState = "NoRemote"
	SyncUnknown       SyncState = "Unknown"
)

// SyncStatus is the result of one sync check. Err is only set for SyncUnknown.
type SyncStatus struct {
	State  SyncState
	Branch string
	Local  string // local head hash
	Remote string // remote-tracking head hash, empty when not resolved
	Base   string // merge base, empty unless heads differ
	Err    error
}

// PushStatus reports whether the current branch has commits its upstream lacks.
// HasUpstream is false when the branch has no tracking branch at all.
type PushStatus struct {
	Pending     bool
	Ahead       int
	HasUpstream bool
}
