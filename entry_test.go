package xstream

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEntryID_RoundTrip(t *testing.T) {
	ids := []EntryID{
		{Ms: 0, Seq: 0},
		{Ms: 1526919030474, Seq: 55},
		{Ms: 1, Seq: math.MaxUint64},
		{Ms: math.MaxUint64, Seq: math.MaxUint64},
	}
	for _, want := range ids {
		got, err := ParseEntryID(want.String())
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestParseEntryID_BareMs(t *testing.T) {
	id, err := ParseEntryID("1526919030474")
	require.NoError(t, err)
	assert.Equal(t, EntryID{Ms: 1526919030474, Seq: 0}, id)
}

func TestParseEntryID_Rejects(t *testing.T) {
	bad := []string{
		"", "-", "+", "*", "$", ">",
		"5-*", "abc", "5-abc", "5-", "-5",
		"18446744073709551616-0", // ms overflows uint64
	}
	for _, s := range bad {
		_, err := ParseEntryID(s)
		assert.Error(t, err, "id %q", s)
	}
}

func TestEntryID_Ordering(t *testing.T) {
	a := EntryID{Ms: 5, Seq: 10}
	b := EntryID{Ms: 5, Seq: 11}
	c := EntryID{Ms: 6, Seq: 0}

	assert.True(t, a.Before(b))
	assert.True(t, b.Before(c))
	assert.True(t, a.Before(c))
	assert.False(t, c.Before(a))
	assert.Equal(t, 0, a.Compare(a))
}

// Ordering is numeric on (ms, seq), not lexicographic on the rendered
// form: "9-0" sorts before "10-0" even though the string does not.
func TestEntryID_OrderingIsNumeric(t *testing.T) {
	lo, err := ParseEntryID("9-0")
	require.NoError(t, err)
	hi, err := ParseEntryID("10-0")
	require.NoError(t, err)

	assert.True(t, lo.Before(hi))
	assert.Greater(t, lo.String(), hi.String())
}

func TestEntryID_Next(t *testing.T) {
	next, overflow := EntryID{Ms: 5, Seq: 3}.Next()
	require.False(t, overflow)
	assert.Equal(t, EntryID{Ms: 5, Seq: 4}, next)

	next, overflow = EntryID{Ms: 5, Seq: math.MaxUint64}.Next()
	require.False(t, overflow)
	assert.Equal(t, EntryID{Ms: 6, Seq: 0}, next)

	_, overflow = EntryID{Ms: math.MaxUint64, Seq: math.MaxUint64}.Next()
	assert.True(t, overflow)
}

func TestEntry_Value(t *testing.T) {
	e := Entry{
		ID: EntryID{Ms: 1, Seq: 1},
		Fields: []Field{
			{Name: "temperature", Value: "21.5"},
			{Name: "humidity", Value: "48"},
			{Name: "temperature", Value: "22.0"}, // duplicates preserved
		},
	}

	v, ok := e.Value("temperature")
	require.True(t, ok)
	assert.Equal(t, "21.5", v, "first occurrence wins")

	_, ok = e.Value("pressure")
	assert.False(t, ok)

	assert.Equal(t, []string{"temperature", "21.5", "humidity", "48", "temperature", "22.0"}, e.Pairs())
}

func TestValidRangeBound(t *testing.T) {
	valid := []string{"-", "+", "0-0", "5", "1526919030474-55", "(5-0", "(7"}
	for _, s := range valid {
		assert.True(t, validRangeBound(s), "bound %q", s)
	}

	invalid := []string{"", "*", "$", ">", "(", "(abc", "5-*"}
	for _, s := range invalid {
		assert.False(t, validRangeBound(s), "bound %q", s)
	}
}
