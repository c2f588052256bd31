package utils

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestEventCodec(t *testing.T) {
	msg, err := structpb.NewStruct(map[string]any{
		"signature": "5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnbJLgp8uirBgmQpjKhoR4tjF3ZpRzrFmBV6UjKdiSZkQUW",
		"status":    "SUCCESS",
		"window":    1,
	})
	require.NoError(t, err)

	data, err := EncodeEvent(EventTypeTxOutcome, msg)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0, 0, 0}, data[:4])

	var decoded structpb.Struct
	eventType, err := DecodeEvent(data, &decoded)
	require.NoError(t, err)
	assert.Equal(t, EventTypeTxOutcome, eventType)
	assert.Equal(t, "SUCCESS", decoded.Fields["status"].GetStringValue())
	assert.Equal(t, float64(1), decoded.Fields["window"].GetNumberValue())

	_, err = DecodeEvent([]byte{1, 2}, &decoded)
	assert.Error(t, err)
}

func TestPartitionForSignature(t *testing.T) {
	sig := bytes.Repeat([]byte{0}, 64)
	sig[27] = 0x0b
	sig[7] = 0x01

	assert.Equal(t, int32(0), PartitionForSignature(sig, 1))
	assert.Equal(t, int32(0x0b&3), PartitionForSignature(sig, 4))

	p := PartitionForSignature(sig, 5)
	assert.GreaterOrEqual(t, p, int32(0))
	assert.Less(t, p, int32(5))
	assert.Equal(t, p, PartitionForSignature(sig, 5))

	assert.Equal(t, int32(0), PartitionForSignature([]byte{1, 2, 3}, 8))
}
