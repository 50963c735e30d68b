package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainSource = "flowir/source/v1"
	DomainModule = "flowir/module/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SourceKey computes the cache identity of one parse request. The key
// covers the language, the file path (it is stamped into node locations),
// the raw source bytes and the IR and engine versions.
func SourceKey(language, filePath string, source []byte) string {
	digest := sha256.Sum256(source)
	obj := Object{
		"language":       String(language),
		"file_path":      String(filePath),
		"source_sha256":  String(hex.EncodeToString(digest[:])),
		"ir_version":     String(IRVersion),
		"engine_version": String(EngineVersion),
	}
	// Only strings above: canonical marshaling cannot fail.
	canonical, _ := MarshalCanonical(obj)
	return hashWithDomain(DomainSource, canonical)
}

// ModuleHash computes the content hash of a module's canonical form.
// Structurally equal modules hash equal regardless of metadata key order.
func ModuleHash(m *Module) (string, error) {
	canonical, err := MarshalCanonical(m)
	if err != nil {
		return "", fmt.Errorf("ModuleHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainModule, canonical), nil
}

// MustModuleHash is like ModuleHash but panics on error.
// Use only in tests or when the module is known to be valid.
func MustModuleHash(m *Module) string {
	h, err := ModuleHash(m)
	if err != nil {
		panic(err)
	}
	return h
}
