package types

import "time"

// CommitRecord holds one commit as read from history. It is never mutated after creation.
type CommitRecord struct {
	Hash    string
	Date    time.Time
	Author  string // optional
	Email   string // optional
	Message string
}

// ShortHash returns the first 7 characters of the hash used for display.
func (c CommitRecord) ShortHash() string {
	if len(c.Hash) <= 7 {
		return c.Hash
	}
	return c.Hash[:7]
}

// CommitCategory classifies a commit by intent.
type CommitCategory string

const (
	CategoryAdded         CommitCategory = "Added"
	CategoryChanged       CommitCategory = "Changed"
	CategoryFixed         CommitCategory = "Fixed"
	CategoryRemoved       CommitCategory = "Removed"
	CategorySecurity      CommitCategory = "Security"
	CategoryTests         CommitCategory = "Tests"
	CategoryDocumentation CommitCategory = "Documentation"
	CategoryBuild         CommitCategory = "Build"
	CategoryConfiguration CommitCategory = "Configuration"
)

// ClassifiedEntry is one commit placed in one category, with the display text left
// after the matched keyword was stripped.
type ClassifiedEntry struct {
	Category CommitCategory
	Commit   CommitRecord
	Residual string
}

// PublishResult holds the outcome of committing and pushing the regenerated files.
type PublishResult struct {
	Committed bool
	Pushed    bool
	Message   string // Success message or error details
	Err       error
}
