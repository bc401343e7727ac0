package dynamodb

import (
	"encoding/json"
	"testing"
	"time"

	"ancillary-api/internal/docstore"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeItem(t *testing.T) {
	item := docstore.Item{
		ID:           "o1",
		PartitionKey: "FL1",
		Body: json.RawMessage(`{
			"id": "o1",
			"price": "49.99",
			"ttl": 2400,
			"metadata": {"refundable": true, "seat": "12A"},
			"orderItems": [{"quantity": 2}],
			"notes": null
		}`),
	}
	expires := time.Date(2026, 3, 4, 10, 40, 0, 0, time.UTC)

	av, err := encodeItem(item, 3, expires)
	require.NoError(t, err)

	assert.Equal(t, &types.AttributeValueMemberS{Value: "FL1"}, av[attrPK])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "o1"}, av[attrID])
	assert.Equal(t, &types.AttributeValueMemberN{Value: "3"}, av[attrVersion])
	assert.Equal(t, &types.AttributeValueMemberN{Value: "1772620800"}, av[attrExpiresAt])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "49.99"}, av["price"])
	assert.Equal(t, &types.AttributeValueMemberN{Value: "2400"}, av["ttl"])
	assert.Equal(t, &types.AttributeValueMemberNULL{Value: true}, av["notes"])

	meta, ok := av["metadata"].(*types.AttributeValueMemberM)
	require.True(t, ok)
	assert.Equal(t, &types.AttributeValueMemberBOOL{Value: true}, meta.Value["refundable"])

	list, ok := av["orderItems"].(*types.AttributeValueMemberL)
	require.True(t, ok)
	require.Len(t, list.Value, 1)
}

func TestEncodeItem_NoExpiry(t *testing.T) {
	av, err := encodeItem(docstore.Item{ID: "r1", PartitionKey: "C1", Body: json.RawMessage(`{}`)}, 1, time.Time{})
	require.NoError(t, err)

	_, ok := av[attrExpiresAt]
	assert.False(t, ok)
}

func TestEncodeItem_ReservedField(t *testing.T) {
	_, err := encodeItem(docstore.Item{ID: "r1", PartitionKey: "C1", Body: json.RawMessage(`{"_version":7}`)}, 1, time.Time{})
	assert.Error(t, err)
}

func TestDecodeItem_StripsInternalAttributes(t *testing.T) {
	body := `{"id":"o1","flightId":"FL1","price":"10.50","ttl":2400,"metadata":{"seat":"12A"}}`
	av, err := encodeItem(docstore.Item{ID: "o1", PartitionKey: "FL1", Body: json.RawMessage(body)}, 4, time.Now().Add(time.Hour))
	require.NoError(t, err)

	item, err := decodeItem(av)
	require.NoError(t, err)

	assert.Equal(t, "o1", item.ID)
	assert.Equal(t, "FL1", item.PartitionKey)
	assert.Equal(t, int64(4), item.Version)
	assert.JSONEq(t, body, string(item.Body))
}

func TestDecodeItem_MissingKey(t *testing.T) {
	_, err := decodeItem(map[string]types.AttributeValue{
		attrID: &types.AttributeValueMemberS{Value: "o1"},
	})
	assert.Error(t, err)
}

func TestExpiredAt(t *testing.T) {
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

	assert.False(t, expiredAt(map[string]types.AttributeValue{}, now))
	assert.False(t, expiredAt(map[string]types.AttributeValue{attrExpiresAt: numberAttr(now.Unix() + 1)}, now))
	assert.True(t, expiredAt(map[string]types.AttributeValue{attrExpiresAt: numberAttr(now.Unix())}, now))
}

func TestEncodeItem_SubSecondExpiryRoundsUp(t *testing.T) {
	validUntil := time.Date(2026, 3, 4, 10, 40, 0, 500_000_000, time.UTC)
	item := docstore.Item{ID: "o1", PartitionKey: "FL1", Body: []byte(`{"id":"o1"}`)}

	av, err := encodeItem(item, 1, validUntil)
	require.NoError(t, err)
	assert.Equal(t, numberAttr(validUntil.Unix()+1), av[attrExpiresAt])

	tests := []struct {
		name    string
		now     time.Time
		expired bool
	}{
		{name: "Start of the final second", now: validUntil.Truncate(time.Second)},
		{name: "At validUntil", now: validUntil},
		{name: "Just before the next second", now: validUntil.Add(499 * time.Millisecond)},
		{name: "Next whole second", now: validUntil.Add(500 * time.Millisecond), expired: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expired, expiredAt(av, tt.now))
		})
	}

	assert.Equal(t, validUntil.Unix(), expiryEpoch(validUntil.Truncate(time.Second)))
}
