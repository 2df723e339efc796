package bind

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalValueSortsRecordKeys(t *testing.T) {
	data, err := MarshalValue(Record{"b": Int(1), "a": Str("x"), "c": Bool(true)})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"x","b":1,"c":true}`, string(data))
}

func TestMarshalValueTaggedForms(t *testing.T) {
	u := UnionValue{TypeName: "test.bind/Either", Variant: "num", Value: Int(4)}
	data, err := MarshalValue(u)
	require.NoError(t, err)
	assert.Equal(t, `{"$type":"test.bind/Either","$variant":"num","value":4}`, string(data))

	empty := UnionValue{TypeName: "test.bind/Either"}
	data, err = MarshalValue(empty)
	require.NoError(t, err)
	assert.Equal(t, `{"$type":"test.bind/Either","$variant":""}`, string(data))

	data, err = MarshalValue(Handle(7))
	require.NoError(t, err)
	assert.Equal(t, `{"$handle":7}`, string(data))
}

func TestValueRoundTrip(t *testing.T) {
	original := Record{
		"name":  Str("echo"),
		"count": Int(3),
		"list":  List{Int(1), Int(2)},
		"inner": Record{"flag": Bool(false), "gap": Null{}},
		"pick":  UnionValue{TypeName: "t/U", Variant: "num", Value: Int(9)},
		"h":     Handle(12),
	}
	data, err := MarshalValue(original)
	require.NoError(t, err)

	back, err := ValueFromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, original, back)
}

func TestValueFromJSONNumbers(t *testing.T) {
	v, err := ValueFromJSON([]byte(`2`))
	require.NoError(t, err)
	assert.Equal(t, Int(2), v)

	v, err = ValueFromJSON([]byte(`1.5`))
	require.NoError(t, err)
	assert.Equal(t, Float(1.5), v)

	v, err = ValueFromJSON([]byte(`1e3`))
	require.NoError(t, err)
	assert.Equal(t, Float(1000), v)
}

func TestValueFromJSONRejectsGarbage(t *testing.T) {
	_, err := ValueFromJSON([]byte(`{"x":`))
	assert.Error(t, err)

	_, err = ValueFromJSON([]byte(`{"$handle": "nope"}`))
	assert.Error(t, err)
}
