package shell

import (
	stdzip "archive/zip"
	"compress/flate"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/smarty/webapk/contracts"
)

// ZipEditor holds the full entry listing of one zip file in memory and
// rewrites the file after every mutating call, so the on-disk archive is
// always structurally complete.
type ZipEditor struct {
	path    string
	entries []zipEntry
}

type zipEntry struct {
	name     string
	content  []byte
	method   contracts.StorageMethod
	modified time.Time
}

func OpenZipEditor(path string) (*ZipEditor, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open archive %q: %w", path, err)
	}
	defer func() { _ = reader.Close() }()

	editor := &ZipEditor{path: path}
	for _, file := range reader.File {
		if isDirectoryEntry(file.Name) {
			continue
		}
		content, err := readZipFile(file)
		if err != nil {
			return nil, fmt.Errorf("read entry %q: %w", file.Name, err)
		}
		editor.entries = append(editor.entries, zipEntry{
			name:     file.Name,
			content:  content,
			method:   storageMethod(file.Method),
			modified: file.Modified,
		})
	}
	return editor, nil
}

func (this *ZipEditor) Entry(name string) ([]byte, error) {
	for _, entry := range this.entries {
		if entry.name == name {
			return append([]byte(nil), entry.content...), nil
		}
	}
	return nil, fmt.Errorf("%q: %w", name, contracts.ErrEntryNotFound)
}

func (this *ZipEditor) ReplaceEntry(name string, content []byte, method contracts.StorageMethod) error {
	this.remove(name)
	this.insert(name, content, method)
	return this.flush()
}

func (this *ZipEditor) AddEntry(name string, content []byte, method contracts.StorageMethod) error {
	if this.contains(name) {
		return fmt.Errorf("entry %q already present, refusing to add", name)
	}
	this.insert(name, content, method)
	return this.flush()
}

func (this *ZipEditor) RemoveEntry(name string) error {
	if !this.contains(name) {
		return fmt.Errorf("%q: %w", name, contracts.ErrEntryNotFound)
	}
	this.remove(name)
	return this.flush()
}

func (this *ZipEditor) Listing() (names []string) {
	for _, entry := range this.entries {
		names = append(names, entry.name)
	}
	return names
}

func (this *ZipEditor) Close() error {
	this.entries = nil
	return nil
}

func (this *ZipEditor) contains(name string) bool {
	for _, entry := range this.entries {
		if entry.name == name {
			return true
		}
	}
	return false
}

func (this *ZipEditor) remove(name string) {
	kept := this.entries[:0]
	for _, entry := range this.entries {
		if entry.name != name {
			kept = append(kept, entry)
		}
	}
	this.entries = kept
}

func (this *ZipEditor) insert(name string, content []byte, method contracts.StorageMethod) {
	this.entries = append(this.entries, zipEntry{
		name:     name,
		content:  append([]byte(nil), content...),
		method:   method,
		modified: time.Now(),
	})
}

func (this *ZipEditor) flush() error {
	temp, err := os.CreateTemp(filepath.Dir(this.path), "webapk-*.zip")
	if err != nil {
		return err
	}
	err = writeZip(temp, this.entries)
	if err != nil {
		_ = temp.Close()
		_ = os.Remove(temp.Name())
		return err
	}
	err = temp.Close()
	if err != nil {
		_ = os.Remove(temp.Name())
		return err
	}
	return os.Rename(temp.Name(), this.path)
}

func writeZip(target io.Writer, entries []zipEntry) error {
	writer := stdzip.NewWriter(target)
	writer.RegisterCompressor(stdzip.Deflate, func(inner io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(inner, flate.BestCompression)
	})
	for _, entry := range entries {
		header := &stdzip.FileHeader{
			Name:     entry.name,
			Method:   zipMethod(entry.method),
			Modified: entry.modified,
		}
		sink, err := writer.CreateHeader(header)
		if err != nil {
			return err
		}
		_, err = sink.Write(entry.content)
		if err != nil {
			return err
		}
	}
	return writer.Close()
}

func readZipFile(file *zip.File) ([]byte, error) {
	reader, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()
	return io.ReadAll(reader)
}

func storageMethod(zipMethod uint16) contracts.StorageMethod {
	if zipMethod == zip.Store {
		return contracts.Stored
	}
	return contracts.Deflated
}

func zipMethod(method contracts.StorageMethod) uint16 {
	if method == contracts.Stored {
		return stdzip.Store
	}
	return stdzip.Deflate
}

func isDirectoryEntry(name string) bool {
	return len(name) > 0 && name[len(name)-1] == '/'
}
