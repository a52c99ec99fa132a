package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringArrayScan(t *testing.T) {
	testCases := []struct {
		name     string
		input    interface{}
		expected StringArray
	}{
		{"nil", nil, nil},
		{"json form", `["a","b"]`, StringArray{"a", "b"}},
		{"json empty", `[]`, StringArray{}},
		{"postgres form", `{a,b,c}`, StringArray{"a", "b", "c"}},
		{"postgres empty", `{}`, StringArray{}},
		{"bytes", []byte(`["x"]`), StringArray{"x"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var a StringArray
			require.NoError(t, a.Scan(tc.input))
			assert.Equal(t, tc.expected, a)
		})
	}
}

func TestStringArrayScanRejectsUnknownType(t *testing.T) {
	var a StringArray
	assert.Error(t, a.Scan(42))
}

func TestStringArrayValue(t *testing.T) {
	v, err := StringArray{"a", "b"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["a","b"]`, v)

	v, err = StringArray(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestJSONMapRoundTrip(t *testing.T) {
	m := JSONMap{"post_id": "p1", "count": float64(3)}
	v, err := m.Value()
	require.NoError(t, err)

	var decoded JSONMap
	require.NoError(t, decoded.Scan(v))
	assert.Equal(t, m, decoded)
}

func TestSummarizePost(t *testing.T) {
	now := time.Now()
	post := &Post{
		ID:           "p1",
		UserID:       "u1",
		User:         User{Username: "alice"},
		Body:         "hello",
		MediaURLs:    StringArray{"https://cdn.example.com/a.jpg"},
		LikeCount:    3,
		CommentCount: 2,
		CreatedAt:    now,
	}

	s := SummarizePost(post)
	assert.Equal(t, "p1", s.ID)
	assert.Equal(t, "alice", s.Username)
	assert.Equal(t, []string{"https://cdn.example.com/a.jpg"}, s.MediaURLs)
	assert.Equal(t, now, s.CreatedAt)
	assert.Equal(t, float64(5), s.EngagementScore())
}
