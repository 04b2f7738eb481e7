package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFirstJSONObjectDirectParse(t *testing.T) {
	obj, err := ExtractFirstJSONObject(`{"framework": "chain_of_thought", "confidence": 0.9}`)
	require.NoError(t, err)
	assert.Equal(t, "chain_of_thought", obj["framework"])
}

func TestExtractFirstJSONObjectJSONFence(t *testing.T) {
	text := "Here is my analysis:\n```json\n{\"task_type\": \"coding\"}\n```\nLet me know if you need more."
	obj, err := ExtractFirstJSONObject(text)
	require.NoError(t, err)
	assert.Equal(t, "coding", obj["task_type"])
}

func TestExtractFirstJSONObjectPlainFence(t *testing.T) {
	text := "```\n{\"verdict\": \"pass\"}\n```"
	obj, err := ExtractFirstJSONObject(text)
	require.NoError(t, err)
	assert.Equal(t, "pass", obj["verdict"])
}

func TestExtractFirstJSONObjectBraceScanIgnoresBracesInStrings(t *testing.T) {
	text := `The result is {"note": "contains a { brace } inside a string", "score": 7} and some trailing prose.`
	obj, err := ExtractFirstJSONObject(text)
	require.NoError(t, err)
	assert.Equal(t, "contains a { brace } inside a string", obj["note"])
	assert.Equal(t, float64(7), obj["score"])
}

func TestExtractFirstJSONObjectNoObjectFound(t *testing.T) {
	_, err := ExtractFirstJSONObject("no json anywhere in this text")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoJSONObject)
}

func TestExtractFirstJSONObjectPrefersDirectParseOverFence(t *testing.T) {
	obj, err := ExtractFirstJSONObject(`{"a": 1}`)
	require.NoError(t, err)
	assert.Equal(t, float64(1), obj["a"])
}
