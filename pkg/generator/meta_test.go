package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseModelMeta(t *testing.T) {
	got, err := ParseModelMeta(map[string]map[string]any{
		"Secret": {"skip": true},
		"Lookup": {"skipCustom": true},
		"Both":   {"skip": false, "skip_custom": true},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]ModelMeta{
		"Secret": {Skip: true},
		"Lookup": {SkipCustom: true},
		"Both":   {SkipCustom: true},
	}, got)

	got, err = ParseModelMeta(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseModelMeta_Invalid(t *testing.T) {
	tests := map[string]map[string]map[string]any{
		"empty entry": {"Widget": {}},
		"not a bool":  {"Widget": {"skip": "yes"}},
		"unknown key": {"Widget": {"hidden": true}},
		"mixed valid": {"Widget": {"skip": true, "public": true}},
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseModelMeta(raw)
			assert.ErrorIs(t, err, ErrInvalidModelMeta)
		})
	}
}
