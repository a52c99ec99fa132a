package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOffsetCursorRoundTrip(t *testing.T) {
	for _, offset := range []int{0, 1, 20, 99999} {
		cursor := encodeOffsetCursor(offset)
		decoded, err := decodeOffsetCursor(cursor)
		require.NoError(t, err)
		assert.Equal(t, offset, decoded)
	}
}

func TestDecodeOffsetCursorEmpty(t *testing.T) {
	offset, err := decodeOffsetCursor("")
	require.NoError(t, err)
	assert.Equal(t, 0, offset)
}

func TestDecodeOffsetCursorRejectsGarbage(t *testing.T) {
	testCases := []struct {
		name   string
		cursor string
	}{
		{"not base64", "!!not-base64!!"},
		{"wrong prefix", encodeIDCursor("abc")},
		{"non-numeric offset", "bzphYmM"}, // base64("o:abc")
		{"negative offset", "bzotNQ"},     // base64("o:-5")
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := decodeOffsetCursor(tc.cursor)
			assert.ErrorIs(t, err, ErrInvalidCursor)
		})
	}
}

func TestIDCursorRoundTrip(t *testing.T) {
	id := "3f1dc8a2-4b6e-4c8f-9d34-0a1b2c3d4e5f"
	decoded, err := decodeIDCursor(encodeIDCursor(id))
	require.NoError(t, err)
	assert.Equal(t, id, decoded)
}

func TestDecodeIDCursorEmpty(t *testing.T) {
	id, err := decodeIDCursor("")
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestDecodeIDCursorRejectsGarbage(t *testing.T) {
	_, err := decodeIDCursor("%%%")
	assert.ErrorIs(t, err, ErrInvalidCursor)

	// An offset cursor is not an id cursor.
	_, err = decodeIDCursor(encodeOffsetCursor(5))
	assert.ErrorIs(t, err, ErrInvalidCursor)
}
