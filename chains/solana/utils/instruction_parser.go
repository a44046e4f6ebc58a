package utils

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// InstructionInfoEnvelope holds a parsed instruction that the node may return
// either as an opaque base58/base64 string or as structured JSON.
type InstructionInfoEnvelope struct {
	AsString          string                 `json:"string,omitempty"`
	AsInstructionInfo *ParsedInstructionInfo `json:"-"`
}

func (wrap *InstructionInfoEnvelope) MarshalJSON() ([]byte, error) {
	if wrap.AsString != "" {
		return json.Marshal(wrap.AsString)
	}
	return json.Marshal(wrap.AsInstructionInfo)
}

func (wrap *InstructionInfoEnvelope) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || (len(data) == 4 && string(data) == "null") {
		return nil
	}
	switch data[0] {
	case '"':
		// Opaque encoded data.
		return json.Unmarshal(data, &wrap.AsString)
	case '{':
		// Structured JSON.
		return json.Unmarshal(data, &wrap.AsInstructionInfo)
	default:
		return errors.Errorf("unknown kind: %v", data)
	}
}
