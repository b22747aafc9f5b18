// Package canonical implements the stable serialization + hashing contract:
// a deterministic, byte-identical JSON rendering of any JSON-compatible
// value (object keys sorted lexicographically at every depth, arrays kept
// in order, scalars in Go's standard JSON form), plus the SHA-256 digest of
// that rendering. This is the determinism witness for the whole system —
// every run-reproducibility invariant ultimately reduces to "canonical
// bytes are equal".
//
// No third-party canonical-JSON library appears anywhere in the reference
// pack; encoding/json plus a manual key-sort on re-marshal is the
// established idiom here (see DESIGN.md for the explicit stdlib
// justification).
package canonical

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// Marshal renders v as canonical JSON: object keys sorted lexicographically
// at every depth, arrays preserved in order, no HTML escaping.
func Marshal(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonical: marshal: %w", err)
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("canonical: unmarshal for canonicalization: %w", err)
	}

	var buf bytes.Buffer
	if err := encode(&buf, generic); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// encode writes v to buf in canonical form. v is the result of
// json.Unmarshal into an `any`, so it is one of: nil, bool, float64,
// string, []any, or map[string]any.
func encode(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
		return nil
	case bool, float64, string:
		enc := json.NewEncoder(buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(val); err != nil {
			return fmt.Errorf("canonical: encode scalar: %w", err)
		}
		// json.Encoder.Encode appends a trailing newline; strip it so
		// nested calls don't embed stray newlines mid-document.
		buf.Truncate(buf.Len() - 1)
		return nil
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encode(buf, elem); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encode(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := encode(buf, val[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	default:
		return fmt.Errorf("canonical: unsupported type %T", v)
	}
}

// Hash returns the lowercase hex SHA-256 digest of v's canonical form.
func Hash(v any) (string, error) {
	data, err := Marshal(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// MustHash is Hash, panicking on error. Reserved for call sites where v's
// marshalability is a programmer invariant (e.g. a ValidationSummary built
// entirely from internal structs), never for tool-supplied input.
func MustHash(v any) string {
	h, err := Hash(v)
	if err != nil {
		panic(err)
	}
	return h
}
