package keyfmt

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type sku string

func (s sku) CacheKeyPart() string { return "sku-" + string(s) }

type filter struct {
	Status string
	Limit  int
	secret string
}

func TestArgsScalarsVerbatim(t *testing.T) {
	require.Equal(t, "", Args(nil))
	require.Equal(t, "0:1", Args([]any{0, 1}))
	require.Equal(t, "x:y", Args([]any{"x", "y"}))
	require.Equal(t, "1:true:2.5:USD", Args([]any{int64(1), true, 2.5, "USD"}))
}

func TestArgComposites(t *testing.T) {
	n := 7
	var nilPtr *int

	cases := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, Nil},
		{"pointer deref", &n, "7"},
		{"nil pointer", nilPtr, Nil},
		{"part", sku("42"), "sku-42"},
		{"bytes", []byte{0xde, 0xad}, "0xdead"},
		{"slice", []int{3, 1, 2}, "[3,1,2]"},
		{"nil slice", []string(nil), "[]"},
		{"array", [2]string{"a", "b"}, "[a,b]"},
		{"map sorted", map[string]int{"b": 2, "a": 1, "c": 3}, "{a=1,b=2,c=3}"},
		{"struct exported only", filter{Status: "open", Limit: 10, secret: "x"}, "filter{Status=open,Limit=10}"},
		{"time utc", time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600)), "2024-01-02T02:04:05Z"},
		{"duration", 5 * time.Minute, "5m0s"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Arg(tc.in))
		})
	}
}

func TestNilDistinctFromStrings(t *testing.T) {
	type label string
	require.Equal(t, "nil", Arg("nil"))
	require.NotEqual(t, Arg(nil), Arg("nil"))
	require.NotEqual(t, Arg(nil), Arg(Nil))
	require.Equal(t, Nil+Nil, Arg(Nil))
	require.Equal(t, Nil+Nil+"x", Arg(label(Nil+"x")))
	require.Equal(t, "open", Arg(label("open")))
	require.NotEqual(t, Args([]any{nil, "a"}), Args([]any{"nil", "a"}))
}

func TestArgMapDeterministic(t *testing.T) {
	m := map[int]string{}
	for i := 0; i < 50; i++ {
		m[i] = strings.Repeat("v", i%3)
	}
	first := Arg(m)
	for i := 0; i < 20; i++ {
		require.Equal(t, first, Arg(m))
	}
}

func TestCompactPassthroughAndHash(t *testing.T) {
	require.Equal(t, "1:Widget:7:price:USD", Compact("1:Widget:7:price:USD", 250))

	long := strings.Repeat("k", 400)
	got := Compact(long, 250)
	require.Len(t, got, 250)
	require.Contains(t, got, "#")
	require.Equal(t, got, Compact(long, 250), "compaction must be deterministic")
	require.NotEqual(t, got, Compact(long+"x", 250))

	spaced := Compact("1:Widget:name with space", 250)
	require.NotContains(t, spaced, " ")
	require.True(t, strings.HasPrefix(spaced, "1:Widget:name_with_space#"))
}
