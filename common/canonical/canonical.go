// Package canonical provides deterministic JSON serialization and content
// hashing for geometry documents and other signed inputs.
//
// Object keys are sorted lexicographically at every depth before hashing, so
// field order in the source document never affects the digest. Array order is
// preserved exactly: coordinate order is semantically meaningful and must not
// be normalized.
package canonical

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Transform re-serializes a JSON document into its canonical form.
func Transform(raw []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse JSON document: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after JSON document")
	}

	var buf bytes.Buffer
	if err := writeCanonical(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// TransformObject canonicalizes any marshalable value.
func TransformObject(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	return Transform(raw)
}

// Hash computes the Keccak-256 digest of the canonical form of raw.
func Hash(raw []byte) (common.Hash, error) {
	canon, err := Transform(raw)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(canon), nil
}

// HashObject computes the canonical digest of any marshalable value.
func HashObject(v interface{}) (common.Hash, error) {
	canon, err := TransformObject(v)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(canon), nil
}

func writeCanonical(buf *bytes.Buffer, v interface{}) error {
	switch val := v.(type) {
	case map[string]interface{}:
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
			encKey, err := json.Marshal(k)
			if err != nil {
				return fmt.Errorf("failed to encode key %q: %w", k, err)
			}
			buf.Write(encKey)
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case []interface{}:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elem); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case json.Number:
		// Keep the source representation so 1.0 and 1 stay distinct inputs.
		buf.WriteString(val.String())
		return nil
	default:
		enc, err := json.Marshal(val)
		if err != nil {
			return fmt.Errorf("failed to encode value: %w", err)
		}
		buf.Write(enc)
		return nil
	}
}
