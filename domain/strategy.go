package domain

// Strategy selects how snapshots of a resource are shipped to projection clients.
type Strategy string

const (
	// CopyStrategy sends every snapshot in full.
	CopyStrategy Strategy = "copy"
	// PatchStrategy sends one full snapshot, then JSON merge patches against the previous one.
	PatchStrategy Strategy = "patch"
)
