package core

import (
	"bytes"
	"unicode/utf8"

	"github.com/smarty/webapk/contracts"
	"github.com/smartystreets/logging"
	"golang.org/x/text/encoding/unicode"
)

// StringPoolPatcher rewrites one known placeholder string inside an opaque
// compiled blob (binary manifest or resource table) without parsing the
// container grammar. The blob never changes length: only bytes strictly
// between a string cell's length prefix and its terminator are touched, so
// every absolute offset encoded elsewhere in the container stays valid. The
// price of that guarantee is that a replacement can shrink but never grow.
type StringPoolPatcher struct {
	logger    *logging.Logger
	encodings []poolEncoding
}

func NewStringPoolPatcher() *StringPoolPatcher {
	return &StringPoolPatcher{
		// Fixed search order: compiled manifests store strings as UTF-16LE;
		// resource tables built with modern tooling prefer UTF-8.
		encodings: []poolEncoding{utf16Encoding{}, utf8Encoding{}},
	}
}

// Patch returns a copy of blob with every located occurrence of oldValue
// replaced by newValue. It fails with contracts.InputTooLongError when
// newValue encodes longer than oldValue in every supported encoding, and with
// contracts.PlaceholderNotFoundError when no encoded occurrence of oldValue
// exists. The input slice is never modified; on failure no copy is returned.
func (this *StringPoolPatcher) Patch(blob []byte, oldValue, newValue string) ([]byte, error) {
	candidates := this.prepare(oldValue, newValue)
	if len(candidates) == 0 {
		return nil, contracts.InputTooLongError{
			Field: "replacement",
			Value: newValue,
			Limit: utf8.RuneCountInString(oldValue),
		}
	}

	patched := append([]byte(nil), blob...)
	occurrences := 0
	for _, candidate := range candidates {
		occurrences += this.patchAll(patched, candidate)
	}
	if occurrences == 0 {
		return nil, contracts.PlaceholderNotFoundError{Placeholder: oldValue}
	}
	this.logger.Printf("patched %d occurrence(s) of %q", occurrences, oldValue)
	return patched, nil
}

type patchCandidate struct {
	encoding   poolEncoding
	oldEncoded []byte
	newEncoded []byte
	oldChars   int
	newChars   int
}

// prepare encodes both values in each supported encoding and keeps only the
// encodings in which the replacement fits inside the placeholder.
func (this *StringPoolPatcher) prepare(oldValue, newValue string) (candidates []patchCandidate) {
	for _, encoding := range this.encodings {
		oldEncoded, err := encoding.Encode(oldValue)
		if err != nil {
			this.logger.Printf("cannot encode %q as %s: %s", oldValue, encoding.Name(), err)
			continue
		}
		newEncoded, err := encoding.Encode(newValue)
		if err != nil {
			this.logger.Printf("cannot encode %q as %s: %s", newValue, encoding.Name(), err)
			continue
		}
		if len(newEncoded) > len(oldEncoded) {
			continue
		}
		candidates = append(candidates, patchCandidate{
			encoding:   encoding,
			oldEncoded: oldEncoded,
			newEncoded: newEncoded,
			oldChars:   encoding.CharCount(oldEncoded),
			newChars:   encoding.CharCount(newEncoded),
		})
	}
	return candidates
}

// patchAll scans the whole blob for the candidate's encoded placeholder and
// rewrites every occurrence in place, returning how many were consumed.
func (this *StringPoolPatcher) patchAll(blob []byte, candidate patchCandidate) (count int) {
	span := len(candidate.oldEncoded) + candidate.encoding.TerminatorWidth()
	cursor := 0
	for cursor < len(blob) {
		offset := bytes.Index(blob[cursor:], candidate.oldEncoded)
		if offset < 0 {
			return count
		}
		position := cursor + offset
		if position+span > len(blob) {
			// Matched bytes run off the end of the blob with no room for a
			// terminator; cannot be a complete string cell.
			return count
		}
		this.overwrite(blob, position, span, candidate)
		this.corroborateLengthField(blob, position, candidate)
		cursor = position + span
		count++
	}
	return count
}

// overwrite lays down the replacement, its terminator, and zeroes any stale
// tail bytes so nothing of the placeholder outlives the patch. An equal-length
// replacement makes the zero-fill cover exactly the terminator.
func (this *StringPoolPatcher) overwrite(blob []byte, position, span int, candidate patchCandidate) {
	copy(blob[position:], candidate.newEncoded)
	for at := position + len(candidate.newEncoded); at < position+span; at++ {
		blob[at] = 0
	}
}

// corroborateLengthField rewrites the fixed-width length prefix immediately
// preceding the match, but only when that prefix already agreed with the
// placeholder's character count. A mismatched prefix means the match may be
// unrelated binary data, so the field is left untouched rather than risk
// corrupting it. This check is a heuristic, not a collision-proof guarantee.
func (this *StringPoolPatcher) corroborateLengthField(blob []byte, position int, candidate patchCandidate) {
	at := position - candidate.encoding.PrefixWidth()
	if at < 0 {
		return
	}
	observed := candidate.encoding.ReadPrefix(blob, at)
	if observed != candidate.oldChars {
		this.logger.Printf(
			"length field before offset %d reads %d, expected %d; leaving it untouched",
			position, observed, candidate.oldChars)
		return
	}
	candidate.encoding.WritePrefix(blob, at, candidate.newChars)
}

/////////////////////////////////////////////////

// poolEncoding describes one of the two string cell layouts used by the
// compiled container formats.
type poolEncoding interface {
	Name() string
	Encode(value string) ([]byte, error)
	CharCount(encoded []byte) int
	PrefixWidth() int
	TerminatorWidth() int
	// ReadPrefix decodes the length field at the given offset, returning -1
	// when the field uses the extended long-string form this patcher refuses
	// to rewrite.
	ReadPrefix(blob []byte, at int) int
	WritePrefix(blob []byte, at, count int)
}

// utf16Encoding: little-endian UTF-16 cells with a 2-byte code-unit count
// prefix and a 2-byte null terminator.
type utf16Encoding struct{}

func (utf16Encoding) Name() string { return "UTF-16LE" }

func (utf16Encoding) Encode(value string) ([]byte, error) {
	return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(value))
}

func (utf16Encoding) CharCount(encoded []byte) int { return len(encoded) / 2 }
func (utf16Encoding) PrefixWidth() int             { return 2 }
func (utf16Encoding) TerminatorWidth() int         { return 2 }

func (utf16Encoding) ReadPrefix(blob []byte, at int) int {
	value := int(blob[at]) | int(blob[at+1])<<8
	if value&0x8000 != 0 {
		// High bit marks a two-unit length extension for strings longer than
		// 32767 code units; placeholders are never that long.
		return -1
	}
	return value
}

func (utf16Encoding) WritePrefix(blob []byte, at, count int) {
	blob[at] = byte(count)
	blob[at+1] = byte(count >> 8)
}

// utf8Encoding: UTF-8 cells with a single-byte length prefix and a single
// null terminator byte. Only the short one-byte prefix form is corroborated;
// the two-byte varint form used for longer strings is recognized and left
// alone rather than assumed to work.
type utf8Encoding struct{}

func (utf8Encoding) Name() string { return "UTF-8" }

func (utf8Encoding) Encode(value string) ([]byte, error) { return []byte(value), nil }

func (utf8Encoding) CharCount(encoded []byte) int { return utf8.RuneCount(encoded) }
func (utf8Encoding) PrefixWidth() int             { return 1 }
func (utf8Encoding) TerminatorWidth() int         { return 1 }

func (utf8Encoding) ReadPrefix(blob []byte, at int) int {
	value := int(blob[at])
	if value&0x80 != 0 {
		return -1
	}
	return value
}

func (utf8Encoding) WritePrefix(blob []byte, at, count int) {
	blob[at] = byte(count)
}
