package domain

// ChangeType describes a corpus file change observed in watch mode.
type ChangeType string

// Change types.
const (
	ChangeCreated ChangeType = "created"
	ChangeUpdated ChangeType = "updated"
	ChangeDeleted ChangeType = "deleted"
)

// Change is a single corpus file change.
type Change struct {
	Type ChangeType
	Path string
}
