package state

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrInvalidData reports an undecodable payload.
var ErrInvalidData = errors.New("invalid data format")

// MsgPackSerializer uses MessagePack for the state cache, gzipping large
// payloads (big comment trees compress well).
type MsgPackSerializer struct {
	// UseCompression enables gzip for payloads over the threshold.
	UseCompression bool
	// CompressionThreshold is the minimum size to trigger compression.
	CompressionThreshold int
}

// NewMsgPackSerializer creates a serializer with compression enabled.
func NewMsgPackSerializer() *MsgPackSerializer {
	return &MsgPackSerializer{
		UseCompression:       true,
		CompressionThreshold: 1024,
	}
}

// Marshal serializes a value to bytes, prefixed with a compression marker.
func (s *MsgPackSerializer) Marshal(v any) ([]byte, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, err
	}

	if s.UseCompression && len(data) >= s.CompressionThreshold {
		compressed, err := compress(data)
		if err == nil {
			return append([]byte{1}, compressed...), nil
		}
		// Fall back to uncompressed.
	}
	return append([]byte{0}, data...), nil
}

// Unmarshal deserializes bytes produced by Marshal.
func (s *MsgPackSerializer) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return ErrInvalidData
	}

	payload := data[1:]
	if data[0] == 1 {
		decompressed, err := decompress(payload)
		if err != nil {
			return err
		}
		payload = decompressed
	}
	return msgpack.Unmarshal(payload, v)
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(data); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gz.Close()
	return io.ReadAll(gz)
}

// JSONSerializer handles the durable {theme, user?} key, which stays JSON
// for interoperability with the browser-side loader.
type JSONSerializer struct {
	// Pretty enables indented output.
	Pretty bool
}

// NewJSONSerializer creates a compact JSON serializer.
func NewJSONSerializer() *JSONSerializer {
	return &JSONSerializer{}
}

// Marshal serializes a value to JSON.
func (s *JSONSerializer) Marshal(v any) ([]byte, error) {
	if s.Pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

// Unmarshal deserializes JSON.
func (s *JSONSerializer) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
