package sign

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"

	"go.mozilla.org/pkcs7"
)

// Legacy per-entry-digest scheme: MANIFEST.MF digests every entry,
// CERT.SF digests the manifest and each of its sections, CERT.RSA is a
// detached CMS signature over CERT.SF.
const (
	manifestName       = "META-INF/MANIFEST.MF"
	signatureFileName  = "META-INF/CERT.SF"
	signatureBlockName = "META-INF/CERT.RSA"

	createdBy = "webapk"
)

func buildManifest(entries []archiveEntry) []byte {
	buffer := new(bytes.Buffer)
	buffer.WriteString("Manifest-Version: 1.0\r\n")
	buffer.WriteString("Created-By: " + createdBy + "\r\n")
	buffer.WriteString("\r\n")
	for _, entry := range entries {
		buffer.Write(manifestSection(entry))
	}
	return buffer.Bytes()
}

func manifestSection(entry archiveEntry) []byte {
	buffer := new(bytes.Buffer)
	buffer.WriteString("Name: " + entry.name + "\r\n")
	buffer.WriteString("SHA-256-Digest: " + digestBase64(entry.content) + "\r\n")
	buffer.WriteString("\r\n")
	return buffer.Bytes()
}

func buildSignatureFile(manifest []byte, entries []archiveEntry) []byte {
	buffer := new(bytes.Buffer)
	buffer.WriteString("Signature-Version: 1.0\r\n")
	buffer.WriteString("Created-By: " + createdBy + "\r\n")
	buffer.WriteString("SHA-256-Digest-Manifest: " + digestBase64(manifest) + "\r\n")
	buffer.WriteString("\r\n")
	for _, entry := range entries {
		buffer.WriteString("Name: " + entry.name + "\r\n")
		buffer.WriteString("SHA-256-Digest: " + digestBase64(manifestSection(entry)) + "\r\n")
		buffer.WriteString("\r\n")
	}
	return buffer.Bytes()
}

func buildSignatureBlock(signatureFile []byte, identity *Identity) ([]byte, error) {
	signedData, err := pkcs7.NewSignedData(signatureFile)
	if err != nil {
		return nil, err
	}
	signedData.SetDigestAlgorithm(pkcs7.OIDDigestAlgorithmSHA256)
	err = signedData.AddSigner(identity.Certificate, identity.PrivateKey, pkcs7.SignerInfoConfig{})
	if err != nil {
		return nil, err
	}
	signedData.Detach()
	return signedData.Finish()
}

func digestBase64(content []byte) string {
	digest := sha256.Sum256(content)
	return base64.StdEncoding.EncodeToString(digest[:])
}
