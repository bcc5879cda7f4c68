package sign

import (
	"bytes"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/binary"
	"errors"
	"fmt"
)

// Modern whole-container scheme: a signing block holding signed digests of
// the three zip sections is spliced in immediately before the central
// directory, and the end-of-central-directory record is repointed past it.
// The newer v3 block is deliberately not emitted for broadest installability.
const (
	schemeV2BlockID = 0x7109871a

	signingBlockMagic = "APK Sig Block 42"

	signatureRSAPKCS1SHA256 = 0x0103

	digestChunkSize = 1 << 20

	eocdMinSize                = 22
	eocdMagic                  = 0x06054b50
	eocdCommentSizeOffset      = 20
	eocdCentralDirOffsetOffset = 16
)

// applySchemeV2 takes the complete bytes of a structurally valid zip and
// returns them with a v2 signing block inserted. It makes no assumption about
// why the input looks the way it does, only that it is a well-formed archive.
func applySchemeV2(archive []byte, identity *Identity) ([]byte, error) {
	eocdOffset, err := findEndOfCentralDirectory(archive)
	if err != nil {
		return nil, err
	}
	directoryOffset := int(binary.LittleEndian.Uint32(archive[eocdOffset+eocdCentralDirOffsetOffset:]))
	if directoryOffset >= eocdOffset {
		return nil, fmt.Errorf("central directory offset %d out of range (eocd at %d)", directoryOffset, eocdOffset)
	}

	contents := archive[:directoryOffset]
	directory := archive[directoryOffset:eocdOffset]
	eocd := archive[eocdOffset:]

	digest := chunkedDigest(contents, directory, eocd)
	signedData, err := buildSignedData(digest, identity.Certificate)
	if err != nil {
		return nil, err
	}
	signature, err := signChunkDigest(signedData, identity)
	if err != nil {
		return nil, err
	}
	publicKey, err := x509.MarshalPKIXPublicKey(&identity.PrivateKey.PublicKey)
	if err != nil {
		return nil, err
	}
	block := buildSigningBlock(buildSchemeV2Value(signedData, signature, publicKey))

	signed := make([]byte, 0, len(archive)+len(block))
	signed = append(signed, contents...)
	signed = append(signed, block...)
	signed = append(signed, directory...)
	signed = append(signed, eocd...)
	// Repoint the central directory past the inserted block.
	binary.LittleEndian.PutUint32(
		signed[len(contents)+len(block)+len(directory)+eocdCentralDirOffsetOffset:],
		uint32(directoryOffset+len(block)))
	return signed, nil
}

// findEndOfCentralDirectory scans backwards for the EOCD magic, accepting a
// position only when its recorded comment size matches the bytes that follow.
func findEndOfCentralDirectory(archive []byte) (int, error) {
	if len(archive) < eocdMinSize {
		return 0, fmt.Errorf("archive too short for end-of-central-directory record (%d bytes)", len(archive))
	}
	maxCommentSize := len(archive) - eocdMinSize
	if maxCommentSize > 0xffff {
		maxCommentSize = 0xffff
	}
	for commentSize := 0; commentSize <= maxCommentSize; commentSize++ {
		position := len(archive) - eocdMinSize - commentSize
		if binary.LittleEndian.Uint32(archive[position:]) != eocdMagic {
			continue
		}
		recorded := int(binary.LittleEndian.Uint16(archive[position+eocdCommentSizeOffset:]))
		if recorded == commentSize {
			return position, nil
		}
	}
	return 0, errors.New("end-of-central-directory record not found")
}

// chunkedDigest implements the scheme's two-level digest: each 1 MiB chunk of
// the three sections is hashed under an 0xa5 prefix, then the ordered chunk
// digests are hashed together under an 0x5a prefix.
func chunkedDigest(sections ...[]byte) []byte {
	var chunkDigests []byte
	chunkCount := 0
	for _, section := range sections {
		for len(section) > 0 {
			size := len(section)
			if size > digestChunkSize {
				size = digestChunkSize
			}
			hasher := sha256.New()
			hasher.Write([]byte{0xa5})
			hasher.Write(uint32le(uint32(size)))
			hasher.Write(section[:size])
			chunkDigests = hasher.Sum(chunkDigests)
			section = section[size:]
			chunkCount++
		}
	}
	hasher := sha256.New()
	hasher.Write([]byte{0x5a})
	hasher.Write(uint32le(uint32(chunkCount)))
	hasher.Write(chunkDigests)
	return hasher.Sum(nil)
}

func signChunkDigest(signedData []byte, identity *Identity) ([]byte, error) {
	hashed := sha256.Sum256(signedData)
	return rsa.SignPKCS1v15(rand.Reader, identity.PrivateKey, crypto.SHA256, hashed[:])
}

// buildSignedData assembles the signed-data record: digest list, certificate
// list, and an empty additional-attributes list, each length-prefixed.
func buildSignedData(digest []byte, certificate *x509.Certificate) ([]byte, error) {
	buffer := new(bytes.Buffer)

	digestRecord := new(bytes.Buffer)
	digestRecord.Write(uint32le(signatureRSAPKCS1SHA256))
	writeLengthPrefixed(digestRecord, digest)
	writeLengthPrefixed(buffer, lengthPrefixed(digestRecord.Bytes()))

	writeLengthPrefixed(buffer, lengthPrefixed(certificate.Raw))

	buffer.Write(uint32le(0)) // no additional attributes
	return buffer.Bytes(), nil
}

// buildSchemeV2Value assembles the single-signer sequence carried under the
// v2 block ID.
func buildSchemeV2Value(signedData, signature, publicKey []byte) []byte {
	signer := new(bytes.Buffer)
	writeLengthPrefixed(signer, signedData)

	signatureRecord := new(bytes.Buffer)
	signatureRecord.Write(uint32le(signatureRSAPKCS1SHA256))
	writeLengthPrefixed(signatureRecord, signature)
	writeLengthPrefixed(signer, lengthPrefixed(signatureRecord.Bytes()))

	writeLengthPrefixed(signer, publicKey)

	return lengthPrefixed(lengthPrefixed(signer.Bytes()))
}

// buildSigningBlock wraps the scheme value in the outer block:
// size | id+value pair | size | magic, where both size fields exclude the
// leading size field itself.
func buildSigningBlock(schemeValue []byte) []byte {
	pairSize := 4 + len(schemeValue)
	blockSize := 8 + pairSize + 8 + len(signingBlockMagic)

	buffer := new(bytes.Buffer)
	buffer.Write(uint64le(uint64(blockSize)))
	buffer.Write(uint64le(uint64(pairSize)))
	buffer.Write(uint32le(schemeV2BlockID))
	buffer.Write(schemeValue)
	buffer.Write(uint64le(uint64(blockSize)))
	buffer.WriteString(signingBlockMagic)
	return buffer.Bytes()
}

func writeLengthPrefixed(buffer *bytes.Buffer, value []byte) {
	buffer.Write(uint32le(uint32(len(value))))
	buffer.Write(value)
}

func lengthPrefixed(value []byte) []byte {
	return append(uint32le(uint32(len(value))), value...)
}

func uint32le(value uint32) []byte {
	encoded := make([]byte, 4)
	binary.LittleEndian.PutUint32(encoded, value)
	return encoded
}

func uint64le(value uint64) []byte {
	encoded := make([]byte, 8)
	binary.LittleEndian.PutUint64(encoded, value)
	return encoded
}
