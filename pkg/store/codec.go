package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-formsubmit/pkg/model"
)

// EncodeData serialises submission data for SQL backends.
func EncodeData(data model.SubmissionData) ([]byte, error) {
	if data == nil {
		data = model.SubmissionData{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("store: encode data: %w", err)
	}
	return raw, nil
}

// DecodeData restores submission data. Whole numbers come back as int so
// normalised integer fields survive a round trip unchanged.
func DecodeData(raw []byte) (model.SubmissionData, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var data map[string]any
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("store: decode data: %w", err)
	}
	for key, value := range data {
		data[key] = restoreNumbers(value)
	}
	return model.SubmissionData(data), nil
}

func restoreNumbers(value any) any {
	switch v := value.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i)
		}
		f, _ := v.Float64()
		return f
	case map[string]any:
		for key, item := range v {
			v[key] = restoreNumbers(item)
		}
		return v
	case []any:
		for i, item := range v {
			v[i] = restoreNumbers(item)
		}
		return v
	default:
		return v
	}
}
