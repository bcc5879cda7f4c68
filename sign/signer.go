package sign

import (
	stdzip "archive/zip"
	"bytes"
	"compress/flate"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/smarty/webapk/contracts"
	"github.com/smartystreets/logging"
)

// Signer produces an archive valid under both the legacy per-entry-digest
// scheme and the modern whole-container block scheme. It rewrites the archive
// rather than patching it, so it is independent of whatever mutations came
// before; there is no partial or degraded signing mode.
type Signer struct {
	logger   *logging.Logger
	identity *Identity
}

func NewSigner(identity *Identity) *Signer {
	return &Signer{identity: identity}
}

func (this *Signer) Sign(unsignedPath, signedPath string) error {
	err := this.sign(unsignedPath, signedPath)
	if err != nil {
		// A failed signing attempt must never leave an output archive behind.
		_ = os.Remove(signedPath)
		return asSigningError(err)
	}
	return nil
}

func (this *Signer) sign(unsignedPath, signedPath string) error {
	entries, err := readEntries(unsignedPath)
	if err != nil {
		return err
	}

	manifest := buildManifest(entries)
	signatureFile := buildSignatureFile(manifest, entries)
	signatureBlock, err := buildSignatureBlock(signatureFile, this.identity)
	if err != nil {
		return err
	}
	this.logger.Printf("signed %d entries under %q", len(entries), this.identity.Certificate.Subject.CommonName)

	entries = append(entries,
		archiveEntry{name: manifestName, content: manifest, method: contracts.Deflated},
		archiveEntry{name: signatureFileName, content: signatureFile, method: contracts.Deflated},
		archiveEntry{name: signatureBlockName, content: signatureBlock, method: contracts.Deflated},
	)

	unsigned := new(bytes.Buffer)
	err = writeArchive(unsigned, entries)
	if err != nil {
		return err
	}

	signed, err := applySchemeV2(unsigned.Bytes(), this.identity)
	if err != nil {
		return err
	}
	return os.WriteFile(signedPath, signed, 0644)
}

type archiveEntry struct {
	name    string
	content []byte
	method  contracts.StorageMethod
}

// readEntries loads every regular entry of the unsigned archive, dropping any
// prior signing metadata so stale signatures never survive a re-sign.
func readEntries(path string) (entries []archiveEntry, err error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open unsigned archive %q: %w", path, err)
	}
	defer func() { _ = reader.Close() }()

	for _, file := range reader.File {
		if strings.HasSuffix(file.Name, "/") || strings.HasPrefix(file.Name, "META-INF/") {
			continue
		}
		opened, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("read entry %q: %w", file.Name, err)
		}
		content, err := io.ReadAll(opened)
		_ = opened.Close()
		if err != nil {
			return nil, fmt.Errorf("read entry %q: %w", file.Name, err)
		}
		method := contracts.Deflated
		if file.Method == zip.Store {
			method = contracts.Stored
		}
		entries = append(entries, archiveEntry{name: file.Name, content: content, method: method})
	}
	return entries, nil
}

func writeArchive(target io.Writer, entries []archiveEntry) error {
	writer := stdzip.NewWriter(target)
	writer.RegisterCompressor(stdzip.Deflate, func(inner io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(inner, flate.BestCompression)
	})
	for _, entry := range entries {
		method := uint16(stdzip.Deflate)
		if entry.method == contracts.Stored {
			method = stdzip.Store
		}
		sink, err := writer.CreateHeader(&stdzip.FileHeader{Name: entry.name, Method: method})
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

func asSigningError(err error) error {
	if _, already := err.(contracts.SigningError); already {
		return err
	}
	return contracts.SigningError{Cause: err}
}
