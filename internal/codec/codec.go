// Package codec converts binary payloads to and from the self-describing
// data URL text form stored in asset fields:
//
//	data:<media-type>;base64,<payload>
//
// The media type is sniffed from the payload content.
package codec

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ErrMalformed is returned when a string is not a base64 data URL.
var ErrMalformed = errors.New("malformed asset")

const (
	scheme       = "data:"
	base64Marker = ";base64"
)

// Asset is a decoded data URL.
type Asset struct {
	MediaType string
	Data      []byte
}

// DetectMediaType returns the media type of payload without parameters,
// falling back to application/octet-stream.
func DetectMediaType(payload []byte) string {
	mt, _, err := mime.ParseMediaType(mimetype.Detect(payload).String())
	if err != nil || mt == "" {
		return "application/octet-stream"
	}
	return mt
}

// Encode returns the data URL form of payload. Equal payloads always produce
// equal strings.
func Encode(payload []byte) string {
	return EncodeAs(DetectMediaType(payload), payload)
}

// EncodeAs is Encode with a caller-chosen media type.
func EncodeAs(mediaType string, payload []byte) string {
	var b strings.Builder
	b.Grow(len(scheme) + len(mediaType) + len(base64Marker) + 1 + base64.StdEncoding.EncodedLen(len(payload)))
	b.WriteString(scheme)
	b.WriteString(mediaType)
	b.WriteString(base64Marker)
	b.WriteByte(',')
	b.WriteString(base64.StdEncoding.EncodeToString(payload))
	return b.String()
}

// EncodeReader reads r to the end and encodes what it read. It returns early
// with ctx.Err() if ctx is done before reading starts.
func EncodeReader(ctx context.Context, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	payload, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read payload: %w", err)
	}
	return Encode(payload), nil
}

// EncodeFile encodes the contents of the file at path.
func EncodeFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return EncodeReader(ctx, f)
}

// split separates a data URL into media type and base64 payload.
func split(s string) (mediaType, payload string, err error) {
	rest, ok := strings.CutPrefix(s, scheme)
	if !ok {
		return "", "", fmt.Errorf("%w: missing %q prefix", ErrMalformed, scheme)
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", "", fmt.Errorf("%w: missing payload separator", ErrMalformed)
	}
	mediaType, ok = strings.CutSuffix(header, base64Marker)
	if !ok {
		return "", "", fmt.Errorf("%w: payload is not base64", ErrMalformed)
	}
	if mediaType == "" {
		return "", "", fmt.Errorf("%w: empty media type", ErrMalformed)
	}
	return mediaType, payload, nil
}

// Parse decodes a data URL into its media type and payload.
func Parse(s string) (Asset, error) {
	mediaType, payload, err := split(s)
	if err != nil {
		return Asset{}, err
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Asset{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return Asset{MediaType: mediaType, Data: data}, nil
}

// Decode returns the payload of a data URL.
func Decode(s string) ([]byte, error) {
	a, err := Parse(s)
	if err != nil {
		return nil, err
	}
	return a.Data, nil
}

// MediaType returns the media type tag of a data URL without decoding the payload.
func MediaType(s string) (string, error) {
	mediaType, _, err := split(s)
	return mediaType, err
}

// Extension returns the usual file extension for the data URL's media type,
// including the leading dot, or "" when none is known.
func Extension(s string) string {
	mediaType, err := MediaType(s)
	if err != nil {
		return ""
	}
	if mt := mimetype.Lookup(mediaType); mt != nil {
		return mt.Extension()
	}
	return ""
}
