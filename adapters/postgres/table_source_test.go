package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToFloat(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  float64
	}{
		{"float64", 1.5, 1.5},
		{"float32", float32(2.5), 2.5},
		{"int64", int64(52), 52},
		{"int32", int32(-3), -3},
		{"bool true", true, 1},
		{"bool false", false, 0},
		{"numeric bytes", []byte("12.25"), 12.25},
		{"numeric string", " 7 ", 7},
		{"pg bool text", "t", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := toFloat(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToFloat_Rejects(t *testing.T) {
	for _, v := range []interface{}{nil, "abc", []byte("NaN"), time.Now(), struct{}{}} {
		_, err := toFloat(v)
		assert.Error(t, err, "%T", v)
	}
}

func TestConvertRecord(t *testing.T) {
	columns := []string{"week", "arrest"}

	row, ok := convertRecord(columns, map[string]interface{}{"week": int64(20), "arrest": true})
	require.True(t, ok)
	assert.Equal(t, []float64{20, 1}, row)

	_, ok = convertRecord(columns, map[string]interface{}{"week": int64(20), "arrest": nil})
	assert.False(t, ok)
}
