package redis

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"confbid/bidding"
)

func decodeMessage[T any](t *testing.T, message map[string]any) T {
	t.Helper()
	raw, ok := message["data"].(string)
	require.True(t, ok, "data field should be a base64 string")
	bytes, err := base64.StdEncoding.DecodeString(raw)
	require.NoError(t, err)
	var out T
	require.NoError(t, msgpack.Unmarshal(bytes, &out))
	return out
}

func TestDefaultParseToMessage(t *testing.T) {
	changedAt := time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)

	t.Run("event round trip", func(t *testing.T) {
		input := TestEvent{
			BidID:     7,
			Reviewer:  1,
			Article:   5,
			Choice:    "Quizás",
			Created:   true,
			ChangedAt: changedAt,
		}

		message, err := DefaultParseToMessage(input)
		require.NoError(t, err)
		assert.Len(t, message, 1)

		got := decodeMessage[TestEvent](t, message)
		assert.Equal(t, input.BidID, got.BidID)
		assert.Equal(t, input.Choice, got.Choice)
		assert.True(t, got.Created)
		assert.True(t, input.ChangedAt.Equal(got.ChangedAt))
	})

	t.Run("bid changed event", func(t *testing.T) {
		input := bidding.BidChanged{
			BidID:     3,
			Reviewer:  2,
			Article:   9,
			Choice:    string(bidding.ChoiceNotInterested),
			ChangedAt: changedAt,
		}

		message, err := DefaultParseToMessage(input)
		require.NoError(t, err)

		got := decodeMessage[bidding.BidChanged](t, message)
		assert.Equal(t, input.EventID, got.EventID)
		assert.Equal(t, input.Article, got.Article)
		assert.Equal(t, input.Choice, got.Choice)
	})

	t.Run("zero values", func(t *testing.T) {
		message, err := DefaultParseToMessage(TestEvent{})
		require.NoError(t, err)

		got := decodeMessage[TestEvent](t, message)
		assert.Zero(t, got.BidID)
		assert.Empty(t, got.Choice)
	})

	t.Run("pointer type error", func(t *testing.T) {
		_, err := DefaultParseToMessage(&TestEvent{BidID: 1})
		assert.ErrorIs(t, err, ErrPointerType)
	})

	t.Run("nil pointer", func(t *testing.T) {
		var input *TestEvent
		_, err := DefaultParseToMessage(input)
		assert.ErrorIs(t, err, ErrPointerType)
	})
}

func TestDefaultParseFromMessage(t *testing.T) {
	valid, err := DefaultParseToMessage(TestEvent{BidID: 4, Choice: "Interesado"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		message map[string]any
		want    TestEvent
		wantErr string
	}{
		{name: "valid", message: valid, want: TestEvent{BidID: 4, Choice: "Interesado"}},
		{name: "missing data", message: map[string]any{"other": "x"}, wantErr: "data field not found"},
		{name: "nil message", message: nil, wantErr: "data field not found"},
		{name: "wrong type", message: map[string]any{"data": 123}, wantErr: "invalid type"},
		{name: "invalid base64", message: map[string]any{"data": "%%%"}, wantErr: "base64 decode error"},
		{name: "invalid msgpack", message: map[string]any{"data": base64.StdEncoding.EncodeToString([]byte{0xc1})}, wantErr: "msgpack unmarshal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DefaultParseFromMessage[TestEvent](tt.message)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.BidID, got.BidID)
			assert.Equal(t, tt.want.Choice, got.Choice)
		})
	}

	_, err = DefaultParseFromMessage[*TestEvent](valid)
	assert.ErrorIs(t, err, ErrPointerType)
}
