// Package imagegen renders persisted painting ideas into images through
// the OpenAI images API.
//
// atoms.go contains pure utility functions with no dependencies.
package imagegen

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// dataURLPrefix is the payload format stored for reference images and
// completed paintings.
const dataURLPrefix = "data:image/png;base64,"

// DecodeDataURL decodes a data-URL image payload into raw bytes.
// Accepts any image media type; only the base64 body after the comma is
// decoded. A bare base64 string (no data: prefix) is accepted too.
func DecodeDataURL(payload string) ([]byte, error) {
	if payload == "" {
		return nil, fmt.Errorf("imagegen: image payload cannot be empty")
	}

	body := payload
	if strings.HasPrefix(payload, "data:") {
		idx := strings.Index(payload, ",")
		if idx < 0 {
			return nil, fmt.Errorf("imagegen: malformed data URL: no comma separator")
		}
		body = payload[idx+1:]
	}

	data, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return nil, fmt.Errorf("imagegen: failed to decode base64 image payload: %w", err)
	}
	return data, nil
}

// EncodeDataURL encodes raw PNG bytes as the stored data-URL form.
func EncodeDataURL(data []byte) string {
	return dataURLPrefix + base64.StdEncoding.EncodeToString(data)
}

// ReferenceIDsJSON serializes reference IDs as the JSON array snapshot
// stored on completed paintings. Order is preserved: it matches the order
// the payloads were supplied to the image call. No references yields the
// empty string, which the repository stores as NULL.
func ReferenceIDsJSON(ids []int64) string {
	if len(ids) == 0 {
		return ""
	}
	data, _ := json.Marshal(ids)
	return string(data)
}

// TruncateMessage shortens a failure message to max bytes.
func TruncateMessage(msg string, max int) string {
	if len(msg) <= max {
		return msg
	}
	return msg[:max]
}
