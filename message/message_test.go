package message

import (
	"testing"

	"github.com/ersantana/desim/simerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaNewArityMismatch(t *testing.T) {
	schema := Declare("Ping", "seq")

	_, err := schema.New()
	require.Error(t, err)
	assert.ErrorIs(t, err, simerr.ErrArgumentCountMismatch)

	rec, err := schema.New(1)
	require.NoError(t, err)
	assert.Equal(t, "Ping", rec.TypeName())
	assert.Equal(t, []any{1}, rec.Values())
}

func TestSchemaMustNewPanicsOnMismatch(t *testing.T) {
	schema := Declare("Ping", "seq")
	assert.Panics(t, func() { schema.MustNew() })
}

func TestRecordGet(t *testing.T) {
	schema := Declare("Pair", "a", "b")
	rec := schema.MustNew(1, "x")

	v, ok := rec.Get("b")
	require.True(t, ok)
	assert.Equal(t, "x", v)

	_, ok = rec.Get("missing")
	assert.False(t, ok)
}

func TestLessOrdersByTypeNameFirst(t *testing.T) {
	a := Declare("Alpha").MustNew()
	b := Declare("Beta").MustNew()
	assert.True(t, Less(a, b))
	assert.False(t, Less(b, a))
}

func TestLessOrdersByAttributeTupleWithinType(t *testing.T) {
	schema := Declare("Tick", "n")
	first := schema.MustNew(1)
	second := schema.MustNew(2)
	assert.True(t, Less(first, second))
	assert.False(t, Less(second, first))
}

func TestLessShorterTupleSortsFirstOnCommonPrefixTie(t *testing.T) {
	short := Declare("Event", "a").MustNew(1)
	long := Declare("Event", "a", "b").MustNew(1, 0)
	assert.True(t, Less(short, long))
}

func TestCompareFallsBackToStringRenderingForUnknownTypes(t *testing.T) {
	type custom struct{ n int }
	assert.Equal(t, 0, Compare(custom{1}, custom{1}))
}
