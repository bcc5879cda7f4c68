package shell

import (
	"fmt"
	"os"
	"sort"

	"github.com/smarty/webapk/contracts"
)

// InMemoryArchive implements contracts.ArchiveEditor without touching disk.
// Tests in other packages share it the same way they share the filesystem fake.
type InMemoryArchive struct {
	contents map[string][]byte
	methods  map[string]contracts.StorageMethod
	closed   bool

	EntryError   error
	ReplaceError error
}

func NewInMemoryArchive() *InMemoryArchive {
	return &InMemoryArchive{
		contents: make(map[string][]byte),
		methods:  make(map[string]contracts.StorageMethod),
	}
}

func (this *InMemoryArchive) Entry(name string) ([]byte, error) {
	if this.EntryError != nil {
		return nil, this.EntryError
	}
	content, found := this.contents[name]
	if !found {
		return nil, fmt.Errorf("%q: %w", name, contracts.ErrEntryNotFound)
	}
	return append([]byte(nil), content...), nil
}

func (this *InMemoryArchive) ReplaceEntry(name string, content []byte, method contracts.StorageMethod) error {
	if this.ReplaceError != nil {
		return this.ReplaceError
	}
	this.contents[name] = append([]byte(nil), content...)
	this.methods[name] = method
	return nil
}

func (this *InMemoryArchive) AddEntry(name string, content []byte, method contracts.StorageMethod) error {
	if _, found := this.contents[name]; found {
		return fmt.Errorf("entry %q already present, refusing to add", name)
	}
	return this.ReplaceEntry(name, content, method)
}

func (this *InMemoryArchive) RemoveEntry(name string) error {
	if _, found := this.contents[name]; !found {
		return fmt.Errorf("%q: %w", name, contracts.ErrEntryNotFound)
	}
	delete(this.contents, name)
	delete(this.methods, name)
	return nil
}

func (this *InMemoryArchive) Listing() (names []string) {
	for name := range this.contents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (this *InMemoryArchive) Close() error {
	this.closed = true
	return nil
}

func (this *InMemoryArchive) Closed() bool { return this.closed }

func (this *InMemoryArchive) Method(name string) contracts.StorageMethod {
	return this.methods[name]
}

/////////////////////////////////////////////////

// InMemoryFileSystem backs the filesystem contracts for tests.
type InMemoryFileSystem struct {
	files map[string][]byte

	CopyError   error
	DeleteError error
	Deleted     []string
}

func NewInMemoryFileSystem() *InMemoryFileSystem {
	return &InMemoryFileSystem{files: make(map[string][]byte)}
}

func (this *InMemoryFileSystem) ReadFile(path string) ([]byte, error) {
	content, found := this.files[path]
	if !found {
		return nil, os.ErrNotExist
	}
	return append([]byte(nil), content...), nil
}

func (this *InMemoryFileSystem) WriteFile(path string, content []byte) error {
	this.files[path] = append([]byte(nil), content...)
	return nil
}

func (this *InMemoryFileSystem) CopyFile(source, target string) error {
	if this.CopyError != nil {
		return this.CopyError
	}
	content, err := this.ReadFile(source)
	if err != nil {
		return err
	}
	return this.WriteFile(target, content)
}

func (this *InMemoryFileSystem) Delete(path string) error {
	if this.DeleteError != nil {
		return this.DeleteError
	}
	this.Deleted = append(this.Deleted, path)
	delete(this.files, path)
	return nil
}
