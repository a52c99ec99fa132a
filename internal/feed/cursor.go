package feed

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
)

// ErrInvalidCursor is returned when a pagination cursor cannot be decoded.
var ErrInvalidCursor = errors.New("invalid cursor")

// Cursors are opaque tokens to callers. Internally the archive feed pages by
// offset and the home feed pages by last-seen id; neither representation is
// part of the API contract, so both are wrapped in the same base64 envelope.

func encodeOffsetCursor(offset int) string {
	return base64.RawURLEncoding.EncodeToString([]byte("o:" + strconv.Itoa(offset)))
}

func decodeOffsetCursor(cursor string) (int, error) {
	if cursor == "" {
		return 0, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, ErrInvalidCursor
	}

	value, ok := strings.CutPrefix(string(raw), "o:")
	if !ok {
		return 0, ErrInvalidCursor
	}

	offset, err := strconv.Atoi(value)
	if err != nil || offset < 0 {
		return 0, ErrInvalidCursor
	}
	return offset, nil
}

func encodeIDCursor(id string) string {
	return base64.RawURLEncoding.EncodeToString([]byte("id:" + id))
}

func decodeIDCursor(cursor string) (string, error) {
	if cursor == "" {
		return "", nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return "", ErrInvalidCursor
	}

	id, ok := strings.CutPrefix(string(raw), "id:")
	if !ok || id == "" {
		return "", ErrInvalidCursor
	}
	return id, nil
}
