// Package ident derives stable, filesystem-safe identifiers from source
// parameters using canonical JSON and BLAKE3.
package ident

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"

	"lukechampine.com/blake3"
)

// hashLen is the number of hex characters of the digest kept in an ID.
const hashLen = 16

// maxSlugLen bounds the readable part of an ID.
const maxSlugLen = 64

// CanonicalJSON converts a value to canonical JSON (stable key ordering).
func CanonicalJSON(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var obj interface{}
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, err
	}

	return canonicalMarshal(obj)
}

func canonicalMarshal(v interface{}) ([]byte, error) {
	switch val := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			keyBytes, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			buf.Write(keyBytes)
			buf.WriteByte(':')
			valBytes, err := canonicalMarshal(val[k])
			if err != nil {
				return nil, err
			}
			buf.Write(valBytes)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil

	case []interface{}:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			itemBytes, err := canonicalMarshal(item)
			if err != nil {
				return nil, err
			}
			buf.Write(itemBytes)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil

	default:
		return json.Marshal(v)
	}
}

// Blake3HashHex computes a BLAKE3 hash and returns it as a hex string.
func Blake3HashHex(data []byte) string {
	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Derive builds "<kind>-<slug>-<digest>" where digest is a truncated
// BLAKE3 hash of the canonical JSON of params. Equal params always yield
// equal IDs; the slug is for humans only.
func Derive(kind string, slug string, params interface{}) (string, error) {
	canonical, err := CanonicalJSON(params)
	if err != nil {
		return "", err
	}

	data := append([]byte(kind+"\n"), canonical...)
	digest := Blake3HashHex(data)[:hashLen]

	parts := []string{Slugify(kind)}
	if s := Slugify(slug); s != "" {
		parts = append(parts, s)
	}
	parts = append(parts, digest)
	return strings.Join(parts, "-"), nil
}

// Slugify lower-cases s and replaces every run of characters outside
// [a-z0-9._] with a single '_'. Leading and trailing separators are dropped.
func Slugify(s string) string {
	var sb strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.':
			if pendingSep && sb.Len() > 0 {
				sb.WriteByte('_')
			}
			pendingSep = false
			sb.WriteRune(r)
		default:
			pendingSep = true
		}
	}

	out := sb.String()
	if len(out) > maxSlugLen {
		out = strings.TrimRight(out[:maxSlugLen], "_")
	}
	return out
}
