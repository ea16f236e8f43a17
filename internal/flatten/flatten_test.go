package flatten

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatten_NestedObjects(t *testing.T) {
	rec, err := Flatten([]byte(`{"kpis":{"clients_in_book":{"value":42},"avg_login_gap":{"value":3.5}},"role":"RM"}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"kpis.clients_in_book.value", "kpis.avg_login_gap.value", "role"}, rec.Keys())

	v, ok := rec.Get("kpis.clients_in_book.value")
	require.True(t, ok)
	assert.Equal(t, Number(42), v)

	v, _ = rec.Get("role")
	assert.Equal(t, String("RM"), v)
}

func TestFlatten_KPIAndChartPayload(t *testing.T) {
	rec, err := Flatten([]byte(`{"kpis":{"avg_leverage_ratio":{"value":1.5}},"charts":{"clients_by_segment":{"data":{"A":3,"B":7}}}}`))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"kpis.avg_leverage_ratio.value",
		"charts.clients_by_segment.data.A",
		"charts.clients_by_segment.data.B",
	}, rec.Keys())

	for key, want := range map[string]Value{
		"kpis.avg_leverage_ratio.value":    Number(1.5),
		"charts.clients_by_segment.data.A": Number(3),
		"charts.clients_by_segment.data.B": Number(7),
	} {
		got, ok := rec.Get(key)
		require.True(t, ok, key)
		assert.Equal(t, want, got, key)
	}
}

func TestFlatten_ArraysAreStringified(t *testing.T) {
	rec, err := Flatten([]byte(`{"a":{"b":1,"c":[1,2]},"d":"x"}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"a.b", "a.c", "d"}, rec.Keys())
	v, _ := rec.Get("a.c")
	assert.Equal(t, String("[1,2]"), v)
}

func TestFlatten_ArrayContentsNotDescended(t *testing.T) {
	rec, err := Flatten([]byte(`{"mix":[{"label":"Equity","value":0.6},{"label":"Debt","value":0.4}]}`))
	require.NoError(t, err)

	assert.Equal(t, 1, rec.Len())
	v, _ := rec.Get("mix")
	assert.Equal(t, `[{"label":"Equity","value":0.6},{"label":"Debt","value":0.4}]`, v.Str)
}

func TestFlatten_Scalars(t *testing.T) {
	rec, err := Flatten([]byte(`{"s":"text","n":-1.25,"t":true,"f":false,"z":null}`))
	require.NoError(t, err)

	tests := []struct {
		key  string
		want Value
	}{
		{"s", String("text")},
		{"n", Number(-1.25)},
		{"t", Bool(true)},
		{"f", Bool(false)},
		{"z", Null()},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := rec.Get(tt.key)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFlatten_EmptyObjects(t *testing.T) {
	rec, err := Flatten([]byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Len())

	rec, err = Flatten([]byte(`{"a":{},"b":1}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, rec.Keys())
}

func TestFlatten_CollisionKeepsFirstPositionLastValue(t *testing.T) {
	// "a.b" is produced first by the literal key, then again by nesting.
	rec, err := Flatten([]byte(`{"a.b":1,"x":2,"a":{"b":3}}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"a.b", "x"}, rec.Keys())
	v, _ := rec.Get("a.b")
	assert.Equal(t, Number(3), v)
}

func TestFlatten_DuplicateKeysLastValueWins(t *testing.T) {
	rec, err := Flatten([]byte(`{"a":{"x":1},"b":2,"a":{"y":3}}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"a.y", "b"}, rec.Keys())
}

func TestFlatten_IndexKeysFirst(t *testing.T) {
	rec, err := Flatten([]byte(`{"b":1,"10":2,"a":3,"2":4,"01":5}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"2", "10", "b", "a", "01"}, rec.Keys())
}

func TestFlatten_NestedIndexKeysOrderedWithinObject(t *testing.T) {
	rec, err := Flatten([]byte(`{"x":{"b":1,"1":2}}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"x.1", "x.b"}, rec.Keys())
}

func TestFlatten_InvalidPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"empty", ``},
		{"malformed", `{"a":`},
		{"array root", `[1,2]`},
		{"string root", `"text"`},
		{"null root", `null`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Flatten([]byte(tt.payload))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidPayload), "got %v", err)
		})
	}
}

func TestFlatten_Deterministic(t *testing.T) {
	payload := []byte(`{"k":{"a":[3,{"z":1}],"b":{"c":null}},"m":"v"}`)
	first, err := Flatten(payload)
	require.NoError(t, err)
	second, err := Flatten(payload)
	require.NoError(t, err)

	a, _ := first.MarshalJSON()
	b, _ := second.MarshalJSON()
	assert.Equal(t, string(a), string(b))
	assert.Equal(t, `{"k.a":"[3,{\"z\":1}]","k.b.c":null,"m":"v"}`, string(a))
}

func TestStringify_JSFormatting(t *testing.T) {
	rec, err := Flatten([]byte(`{"a":[1.0,1e21,1e-7,0.000001,-0,"<b>&","line\nbreak",true,null,[],{}]}`))
	require.NoError(t, err)

	v, _ := rec.Get("a")
	assert.Equal(t, `[1,1e+21,1e-7,0.000001,0,"<b>&","line\nbreak",true,null,[],{}]`, v.Str)
}
