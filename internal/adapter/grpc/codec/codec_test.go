package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"
)

type message struct {
	ID     string `json:"id"`
	Amount string `json:"amount"`
}

func TestJSONCodecIsRegistered(t *testing.T) {
	c := encoding.GetCodec(Name)
	require.NotNil(t, c)
	assert.Equal(t, "json", c.Name())
}

func TestJSONCodecRoundTrip(t *testing.T) {
	c := JSON{}

	data, err := c.Marshal(&message{ID: "tx-1", Amount: "150"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"tx-1","amount":"150"}`, string(data))

	var got message
	require.NoError(t, c.Unmarshal(data, &got))
	assert.Equal(t, message{ID: "tx-1", Amount: "150"}, got)
}

func TestJSONCodecEmptyPayload(t *testing.T) {
	var got message
	require.NoError(t, JSON{}.Unmarshal(nil, &got))
	assert.Equal(t, message{}, got)
}

func TestJSONCodecRejectsGarbage(t *testing.T) {
	var got message
	assert.Error(t, JSON{}.Unmarshal([]byte("{not json"), &got))
}
