package sign

import (
	stdzip "archive/zip"
	"bytes"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/smartystreets/assertions/should"
	"github.com/smartystreets/gunit"
)

func TestSchemeV2Fixture(t *testing.T) {
	gunit.Run(new(SchemeV2Fixture), t)
}

type SchemeV2Fixture struct {
	*gunit.Fixture
	original []byte
	signed   []byte
}

func (this *SchemeV2Fixture) Setup() {
	this.original = this.buildArchive("")
	signed, err := applySchemeV2(this.original, testIdentity(this.Fixture))
	this.So(err, should.BeNil)
	this.signed = signed
}

func (this *SchemeV2Fixture) buildArchive(comment string) []byte {
	buffer := new(bytes.Buffer)
	writer := stdzip.NewWriter(buffer)
	if comment != "" {
		this.So(writer.SetComment(comment), should.BeNil)
	}
	for name, content := range map[string]string{
		"AndroidManifest.xml": "manifest-bytes",
		"resources.arsc":      "resource-table-bytes",
		"assets/config.json":  `{"url":"https://example.com"}`,
	} {
		entry, err := writer.Create(name)
		this.So(err, should.BeNil)
		_, err = entry.Write([]byte(content))
		this.So(err, should.BeNil)
	}
	this.So(writer.Close(), should.BeNil)
	return buffer.Bytes()
}

func (this *SchemeV2Fixture) TestSignedArchiveStillReadable() {
	reader, err := stdzip.NewReader(bytes.NewReader(this.signed), int64(len(this.signed)))

	this.So(err, should.BeNil)
	names := make([]string, 0, len(reader.File))
	for _, file := range reader.File {
		names = append(names, file.Name)
	}
	this.So(names, should.Contain, "AndroidManifest.xml")
	this.So(names, should.Contain, "resources.arsc")
	this.So(names, should.Contain, "assets/config.json")
}

func (this *SchemeV2Fixture) TestSigningBlockSplicedBeforeCentralDirectory() {
	block := this.locateSigningBlock()

	this.So(string(this.signed[block.directoryOffset-len(signingBlockMagic):block.directoryOffset]),
		should.Equal, signingBlockMagic)
	this.So(block.leadingSize, should.Equal, block.trailingSize)
	this.So(block.pairID, should.Equal, uint32(schemeV2BlockID))
}

func (this *SchemeV2Fixture) TestSignatureVerifiesAgainstSignedData() {
	block := this.locateSigningBlock()
	signer := this.parseSigner(block.pairValue)

	parsed, err := x509.ParsePKIXPublicKey(signer.publicKey)
	this.So(err, should.BeNil)
	publicKey, ok := parsed.(*rsa.PublicKey)
	this.So(ok, should.BeTrue)
	this.So(publicKey.Equal(&testIdentity(this.Fixture).PrivateKey.PublicKey), should.BeTrue)

	this.So(signer.signatureAlgorithm, should.Equal, uint32(signatureRSAPKCS1SHA256))
	hashed := sha256.Sum256(signer.signedData)
	err = rsa.VerifyPKCS1v15(publicKey, crypto.SHA256, hashed[:], signer.signature)
	this.So(err, should.BeNil)
}

func (this *SchemeV2Fixture) TestDigestCoversArchiveAsIfBlockWereAbsent() {
	block := this.locateSigningBlock()
	signer := this.parseSigner(block.pairValue)

	eocdOffset, err := findEndOfCentralDirectory(this.signed)
	this.So(err, should.BeNil)
	contents := this.signed[:block.start]
	directory := this.signed[block.directoryOffset:eocdOffset]
	eocd := append([]byte(nil), this.signed[eocdOffset:]...)
	binary.LittleEndian.PutUint32(eocd[eocdCentralDirOffsetOffset:], uint32(block.start))

	this.So(signer.digestAlgorithm, should.Equal, uint32(signatureRSAPKCS1SHA256))
	this.So(signer.digest, should.Resemble, chunkedDigest(contents, directory, eocd))
}

func (this *SchemeV2Fixture) TestArchiveCommentSurvivesSigning() {
	// The comment deliberately embeds the record magic with an implausible
	// comment-size field, so only corroborated scanning finds the real record.
	decoy := "PK\x05\x06" + strings.Repeat("x", 30)
	commented := this.buildArchive(decoy)

	signed, err := applySchemeV2(commented, testIdentity(this.Fixture))

	this.So(err, should.BeNil)
	reader, err := stdzip.NewReader(bytes.NewReader(signed), int64(len(signed)))
	this.So(err, should.BeNil)
	this.So(reader.Comment, should.Equal, decoy)
}

func (this *SchemeV2Fixture) TestMinimalRecordLocatedAtStart() {
	record := make([]byte, eocdMinSize)
	binary.LittleEndian.PutUint32(record, eocdMagic)

	position, err := findEndOfCentralDirectory(record)

	this.So(err, should.BeNil)
	this.So(position, should.Equal, 0)
}

func (this *SchemeV2Fixture) TestShortInputRejected() {
	_, err := applySchemeV2([]byte("way too short"), testIdentity(this.Fixture))

	this.So(err, should.NotBeNil)
}

func (this *SchemeV2Fixture) TestRecordlessInputRejected() {
	_, err := applySchemeV2(bytes.Repeat([]byte{0xEE}, 64), testIdentity(this.Fixture))

	this.So(err, should.NotBeNil)
}

/////////////////////////////////////////////////////////////////////////////

type parsedBlock struct {
	start           int
	directoryOffset int
	leadingSize     uint64
	trailingSize    uint64
	pairID          uint32
	pairValue       []byte
}

func (this *SchemeV2Fixture) locateSigningBlock() parsedBlock {
	eocdOffset, err := findEndOfCentralDirectory(this.signed)
	this.So(err, should.BeNil)
	directoryOffset := int(binary.LittleEndian.Uint32(this.signed[eocdOffset+eocdCentralDirOffsetOffset:]))

	trailingSize := binary.LittleEndian.Uint64(this.signed[directoryOffset-8-len(signingBlockMagic):])
	start := directoryOffset - 8 - int(trailingSize)
	this.So(start, should.BeGreaterThanOrEqualTo, 0)

	leadingSize := binary.LittleEndian.Uint64(this.signed[start:])
	pairSize := binary.LittleEndian.Uint64(this.signed[start+8:])
	pairID := binary.LittleEndian.Uint32(this.signed[start+16:])
	pairValue := this.signed[start+20 : start+16+int(pairSize)]

	return parsedBlock{
		start:           start,
		directoryOffset: directoryOffset,
		leadingSize:     leadingSize,
		trailingSize:    trailingSize,
		pairID:          pairID,
		pairValue:       pairValue,
	}
}

type parsedSigner struct {
	signedData         []byte
	digestAlgorithm    uint32
	digest             []byte
	signatureAlgorithm uint32
	signature          []byte
	publicKey          []byte
}

// parseSigner unpacks the single-signer sequence: length-prefixed signed-data,
// signature list, and public key, then the digest list inside signed-data.
func (this *SchemeV2Fixture) parseSigner(value []byte) parsedSigner {
	signers := this.takePrefixed(&value)
	signer := this.takePrefixed(&signers)

	signedData := this.takePrefixed(&signer)
	signatures := this.takePrefixed(&signer)
	publicKey := this.takePrefixed(&signer)

	signatureRecord := this.takePrefixed(&signatures)
	signatureAlgorithm := this.takeUint32(&signatureRecord)
	signature := this.takePrefixed(&signatureRecord)

	digestList := append([]byte(nil), signedData...)
	digests := this.takePrefixed(&digestList)
	digestRecord := this.takePrefixed(&digests)
	digestAlgorithm := this.takeUint32(&digestRecord)
	digest := this.takePrefixed(&digestRecord)

	return parsedSigner{
		signedData:         signedData,
		digestAlgorithm:    digestAlgorithm,
		digest:             digest,
		signatureAlgorithm: signatureAlgorithm,
		signature:          signature,
		publicKey:          publicKey,
	}
}

func (this *SchemeV2Fixture) takePrefixed(remaining *[]byte) []byte {
	size := this.takeUint32(remaining)
	this.So(len(*remaining), should.BeGreaterThanOrEqualTo, int(size))
	value := (*remaining)[:size]
	*remaining = (*remaining)[size:]
	return value
}

func (this *SchemeV2Fixture) takeUint32(remaining *[]byte) uint32 {
	this.So(len(*remaining), should.BeGreaterThanOrEqualTo, 4)
	value := binary.LittleEndian.Uint32(*remaining)
	*remaining = (*remaining)[4:]
	return value
}
