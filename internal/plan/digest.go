package plan

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/timitprog-hue/buildplan/internal/models"
	"github.com/zeebo/blake3"
)

const digestPrefix = "blake3:"

// jsonNumberTag wraps json.Number values in document digests. Untagged they
// would encode exactly like strings.
const jsonNumberTag = 0x6a6e

// Digest fingerprints a plan. The Digest field itself is excluded, so the
// result can be stored back into the plan.
func Digest(p models.BuildPlan) (string, error) {
	p.Digest = ""
	data, err := MarshalCBOR(p)
	if err != nil {
		return "", fmt.Errorf("failed to encode plan for digest: %w", err)
	}
	return sum(data), nil
}

// DocumentDigest fingerprints a parsed document. Map keys are sorted by the
// deterministic encoder, so syntax-level differences such as key order or
// comments do not change the result. Values of different types never share
// an encoding.
func DocumentDigest(doc models.Document) (string, error) {
	data, err := MarshalCBOR(tagJSONNumbers(map[string]interface{}(doc)))
	if err != nil {
		return "", fmt.Errorf("failed to encode document for digest: %w", err)
	}
	return sum(data), nil
}

func sum(data []byte) string {
	h := blake3.Sum256(data)
	return digestPrefix + hex.EncodeToString(h[:])
}

// tagJSONNumbers returns a copy of v with every json.Number tagged
func tagJSONNumbers(v interface{}) interface{} {
	switch t := v.(type) {
	case json.Number:
		return cbor.Tag{Number: jsonNumberTag, Content: string(t)}
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, item := range t {
			out[k] = tagJSONNumbers(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = tagJSONNumbers(item)
		}
		return out
	default:
		return v
	}
}
