package table

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueString(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"null", Null(), ""},
		{"integral float", Number(3), "3"},
		{"negative integral", Number(-12), "-12"},
		{"fraction", Number(2.5), "2.5"},
		{"large", Number(1e20), "100000000000000000000"},
		{"positive inf", Number(math.Inf(1)), "inf"},
		{"true", Bool(true), "True"},
		{"false", Bool(false), "False"},
		{"string", String("x,y"), "x,y"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.String())
		})
	}
}

func TestValueEqual(t *testing.T) {
	assert.True(t, Null().Equal(Null()))
	assert.True(t, Number(1).Equal(Number(1)))
	assert.True(t, Number(math.NaN()).Equal(Number(math.NaN())))
	assert.False(t, Number(1).Equal(String("1")))
	assert.False(t, Number(1).Equal(Bool(true)))
	assert.False(t, Null().Equal(String("")))
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name    string
		a, b    Value
		want    int
		wantErr bool
	}{
		{"numbers less", Number(1), Number(2), -1, false},
		{"numbers equal", Number(2), Number(2), 0, false},
		{"bool vs number", Bool(true), Number(0.5), 1, false},
		{"strings", String("b"), String("a"), 1, false},
		{"string vs number", String("a"), Number(1), 0, true},
		{"bool vs string", Bool(false), String("x"), 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compare(tt.a, tt.b)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrIncomparable))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromAny(t *testing.T) {
	v, err := FromAny(float64(7))
	require.NoError(t, err)
	assert.Equal(t, KindNumber, v.Kind())

	v, err = FromAny(json.Number("1.5"))
	require.NoError(t, err)
	f, ok := v.Float()
	assert.True(t, ok)
	assert.Equal(t, 1.5, f)

	v, err = FromAny(nil)
	require.NoError(t, err)
	assert.True(t, v.IsNull())

	_, err = FromAny(map[string]any{"a": 1})
	assert.Error(t, err)

	_, err = FromAny([]any{1})
	assert.Error(t, err)
}

func TestValueJSON(t *testing.T) {
	row := []Value{Number(1), String("a"), Bool(true), Null(), Number(math.Inf(-1))}
	data, err := json.Marshal(row)
	require.NoError(t, err)
	assert.JSONEq(t, `[1,"a",true,null,"-inf"]`, string(data))

	var back []Value
	require.NoError(t, json.Unmarshal([]byte(`[2.5,"b",false,null]`), &back))
	require.Len(t, back, 4)
	assert.True(t, back[0].Equal(Number(2.5)))
	assert.True(t, back[1].Equal(String("b")))
	assert.True(t, back[2].Equal(Bool(false)))
	assert.True(t, back[3].IsNull())
}
