// Package codec registers the JSON wire format used by the gRPC services.
package codec

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
)

// Name is the content subtype clients select with grpc.CallContentSubtype;
// on the wire it appears as application/grpc+json.
const Name = "json"

func init() {
	encoding.RegisterCodec(JSON{})
}

// JSON marshals messages with encoding/json.
type JSON struct{}

// Marshal implements encoding.Codec.
func (JSON) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json codec: marshal %T: %w", v, err)
	}
	return data, nil
}

// Unmarshal implements encoding.Codec.
func (JSON) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("json codec: unmarshal %T: %w", v, err)
	}
	return nil
}

// Name implements encoding.Codec.
func (JSON) Name() string {
	return Name
}
