package history

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Kind string `json:"kind"`
	Text string `json:"text,omitempty"`
	N    int    `json:"n,omitempty"`
}

func TestMarshal(t *testing.T) {
	t.Run("nil slice is an explicit empty array", func(t *testing.T) {
		blob, err := Marshal[entry](nil)
		require.NoError(t, err)
		assert.Equal(t, EmptyBlob, blob)
	})

	t.Run("entries are compact", func(t *testing.T) {
		blob, err := Marshal([]entry{{Kind: "a", Text: "x"}, {Kind: "b", N: 2}})
		require.NoError(t, err)
		assert.Equal(t, `[{"kind":"a","text":"x"},{"kind":"b","n":2}]`, blob)
	})

	t.Run("unencodable value falls back to empty", func(t *testing.T) {
		blob, err := Marshal([]float64{1, math.NaN()})
		assert.Error(t, err)
		assert.Equal(t, EmptyBlob, blob)
	})
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		blob    string
		want    []entry
		wantErr bool
	}{
		{"blank", "", []entry{}, false},
		{"whitespace", "  \n", []entry{}, false},
		{"null literal", "null", []entry{}, false},
		{"empty array", "[]", []entry{}, false},
		{"garbage", "{{{", []entry{}, true},
		{"object instead of array", `{"kind":"a"}`, []entry{}, true},
		{"incompatible entry shape", `[{"kind": 5}]`, []entry{}, true},
		{"entries", `[{"kind":"a"},{"kind":"b","n":3}]`, []entry{{Kind: "a"}, {Kind: "b", N: 3}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse[entry](tt.blob)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, Decode[entry](tt.blob))
		})
	}
}

func TestRoundTripPreservesOrder(t *testing.T) {
	in := make([]entry, 0, 50)
	for i := 0; i < 50; i++ {
		in = append(in, entry{Kind: "chunk", N: i + 1})
	}

	blob, err := Marshal(in)
	require.NoError(t, err)
	assert.Equal(t, in, Decode[entry](blob))
}

func TestTail(t *testing.T) {
	in := []int{1, 2, 3, 4, 5}

	assert.Equal(t, in, Tail(in, 0))
	assert.Equal(t, in, Tail(in, -1))
	assert.Equal(t, in, Tail(in, 5))
	assert.Equal(t, in, Tail(in, 10))
	assert.Equal(t, []int{4, 5}, Tail(in, 2))
	assert.Empty(t, Tail([]int{}, 3))
}
