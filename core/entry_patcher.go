package core

import (
	"errors"

	"github.com/smarty/webapk/contracts"
	"github.com/smartystreets/logging"
)

// BinaryEntryPatcher applies the string-pool patch to a named archive entry:
// read the blob, patch it atomically in memory, write it back under the same
// name and storage method. A missing entry is a fatal template defect.
type BinaryEntryPatcher struct {
	logger  *logging.Logger
	patcher *StringPoolPatcher
}

func NewBinaryEntryPatcher(patcher *StringPoolPatcher) *BinaryEntryPatcher {
	return &BinaryEntryPatcher{patcher: patcher}
}

func (this *BinaryEntryPatcher) PatchEntry(
	archive contracts.ArchiveEditor,
	name, oldValue, newValue string,
	method contracts.StorageMethod,
) error {
	blob, err := archive.Entry(name)
	if errors.Is(err, contracts.ErrEntryNotFound) {
		return contracts.RequiredEntryMissingError{Entry: name}
	}
	if err != nil {
		return err
	}
	this.logger.Printf("patching %q (%d bytes): %q -> %q", name, len(blob), oldValue, newValue)
	patched, err := this.patcher.Patch(blob, oldValue, newValue)
	if err != nil {
		return err
	}
	return archive.ReplaceEntry(name, patched, method)
}
