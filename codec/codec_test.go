package codec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type quote struct {
	Symbol string    `json:"symbol" msgpack:"symbol" cbor:"symbol"`
	Price  float64   `json:"price" msgpack:"price" cbor:"price"`
	At     time.Time `json:"at" msgpack:"at" cbor:"at"`
}

func sample() quote {
	return quote{Symbol: "WDGT", Price: 9.99, At: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func roundTrip[V any](t *testing.T, c Codec[V], v V) V {
	t.Helper()
	b, err := c.Encode(v)
	require.NoError(t, err)
	out, err := c.Decode(b)
	require.NoError(t, err)
	return out
}

func TestStructCodecs(t *testing.T) {
	want := sample()
	for name, c := range map[string]Codec[quote]{
		"json":    JSON[quote]{},
		"msgpack": Msgpack[quote]{},
		"cbor":    MustCBOR[quote](true),
	} {
		got := roundTrip(t, c, want)
		require.Equal(t, want.Symbol, got.Symbol, name)
		require.Equal(t, want.Price, got.Price, name)
		require.True(t, want.At.Equal(got.At), name)
	}
}

func TestDecodeGarbage(t *testing.T) {
	_, err := JSON[quote]{}.Decode([]byte("{"))
	require.Error(t, err)
	_, err = MustCBOR[quote](false).Decode([]byte{0xff})
	require.Error(t, err)
}

func TestProtobuf(t *testing.T) {
	c := NewProtobuf(func() *wrapperspb.StringValue { return &wrapperspb.StringValue{} })
	got := roundTrip(t, Codec[*wrapperspb.StringValue](c), wrapperspb.String("hello"))
	require.Equal(t, "hello", got.GetValue())
}

func TestLimit(t *testing.T) {
	c := Limit[string]{Inner: String{}, MaxDecode: 4}
	_, err := c.Decode([]byte("12345"))
	require.Error(t, err)

	v, err := c.Decode([]byte("1234"))
	require.NoError(t, err)
	require.Equal(t, "1234", v)

	unlimited := Limit[string]{Inner: String{}}
	_, err = unlimited.Decode(make([]byte, 1<<16))
	require.NoError(t, err)
}

func TestRaw(t *testing.T) {
	require.Equal(t, []byte{1, 2}, roundTrip[[]byte](t, Bytes{}, []byte{1, 2}))
	require.Equal(t, "abc", roundTrip[string](t, String{}, "abc"))
}
