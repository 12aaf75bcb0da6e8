package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainCall prefixes call identity hashes.
// The version suffix allows the algorithm to change later.
const DomainCall = "tempo/call/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// CallID computes the content-addressed ID of a call. The ID is stable
// across runs given the same session, operator, arguments and sequence
// number. Results are excluded: a call is identified by what was asked.
func CallID(session, operator string, args IRArray, seq int64) (string, error) {
	obj := IRObject{
		"session":  IRString(session),
		"operator": IRString(operator),
		"args":     args,
		"seq":      IRInt(seq),
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("CallID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainCall, canonical), nil
}

// MustCallID is like CallID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustCallID(session, operator string, args IRArray, seq int64) string {
	id, err := CallID(session, operator, args, seq)
	if err != nil {
		panic(err)
	}
	return id
}
