package contracts

import "errors"

type StorageMethod int

const (
	Stored StorageMethod = iota
	Deflated
)

var ErrEntryNotFound = errors.New("entry not found")

// ArchiveEditor provides random access over the entries of a zip container.
// Mutating calls rewrite the backing file immediately; callers needing several
// mutations hold one editor open and issue them sequentially before closing.
type ArchiveEditor interface {
	Entry(name string) ([]byte, error)
	ReplaceEntry(name string, content []byte, method StorageMethod) error
	AddEntry(name string, content []byte, method StorageMethod) error
	RemoveEntry(name string) error
	Listing() []string
	Close() error
}

type ArchiveSigner interface {
	Sign(unsignedPath, signedPath string) error
}
