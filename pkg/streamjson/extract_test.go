package streamjson

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractResponseBeforeMarker(t *testing.T) {
	assert.Equal(t, "", ExtractResponse(""))
	assert.Equal(t, "", ExtractResponse(`{"resp`))
	assert.Equal(t, "", ExtractResponse(`{"response"`))
	assert.Equal(t, "", ExtractResponse(`{"response":`))
	assert.Equal(t, "", ExtractResponse(`{"other":"value"}`))
}

func TestExtractResponsePartialValue(t *testing.T) {
	assert.Equal(t, "Hel", ExtractResponse(`{"response":"Hel`))
	assert.Equal(t, "Hello world", ExtractResponse(`{"response":"Hello world"`))
	assert.Equal(t, "Hello world", ExtractResponse(`{"response":"Hello world","suggested_actions":[]}`))
}

func TestExtractResponseChunkBoundaries(t *testing.T) {
	// The chunk split from the streaming scenario: the key itself arrives in
	// two pieces, then the value grows.
	chunks := []string{`{"resp`, `onse":"Hel`, `lo world"`, `,"suggested_actions":[]}`}
	acc := ""
	var values []string
	for _, c := range chunks {
		acc += c
		values = append(values, ExtractResponse(acc))
	}
	assert.Equal(t, []string{"", "Hel", "Hello world", "Hello world"}, values)
}

func TestExtractResponseWhitespaceAroundColon(t *testing.T) {
	assert.Equal(t, "hi", ExtractResponse("{\"response\" : \n\t\"hi\"}"))
}

func TestExtractResponseEscapes(t *testing.T) {
	assert.Equal(t, "a\nb", ExtractResponse(`{"response":"a\nb"}`))
	assert.Equal(t, "a\tb", ExtractResponse(`{"response":"a\tb"}`))
	assert.Equal(t, "a\rb", ExtractResponse(`{"response":"a\rb"}`))
	assert.Equal(t, `say "hi"`, ExtractResponse(`{"response":"say \"hi\""}`))
	assert.Equal(t, `a\b`, ExtractResponse(`{"response":"a\\b"}`))
	assert.Equal(t, "a/b", ExtractResponse(`{"response":"a\/b"}`))
	assert.Equal(t, "café", ExtractResponse(`{"response":"café"}`))
}

func TestExtractResponseSurrogatePair(t *testing.T) {
	assert.Equal(t, "\U0001F600", ExtractResponse(`{"response":"😀"}`))
	// High surrogate with its low half still in flight is held back.
	assert.Equal(t, "x", ExtractResponse(`{"response":"x\ud83d`))
	assert.Equal(t, "x", ExtractResponse(`{"response":"x\ud83d\ud`))
}

func TestExtractResponseTruncatedEscape(t *testing.T) {
	assert.Equal(t, "ab", ExtractResponse(`{"response":"ab\`))
	assert.Equal(t, "ab", ExtractResponse(`{"response":"ab\u`))
	assert.Equal(t, "ab", ExtractResponse(`{"response":"ab\u00`))
}

func TestExtractResponseNeverPanics(t *testing.T) {
	garbage := []string{
		"",
		"\x00\xff\xfe",
		`{"response}`,
		`response":"`,
		`{"response":42}`,
		`{"response": }`,
		`[[[[`,
		"\"response\"\"\"",
		`{"response":"` + string([]byte{0xe2, 0x28, 0xa1}) + `"}`,
	}
	for _, g := range garbage {
		assert.NotPanics(t, func() { ExtractResponse(g) })
	}
}

// Feeding every prefix of a well-formed payload must converge on the strict
// parse's value of "response".
func TestExtractResponseConvergence(t *testing.T) {
	payloads := []FinalPayload{
		{Response: "Hello world"},
		{Response: "line one\nline two \"quoted\" café \U0001F600"},
		{Response: "", SuggestedActions: []ActionPayload{{Label: "Shorten it", Action: "shorten"}}},
		{Response: "tabs\tand\\slashes/ here"},
	}
	for _, p := range payloads {
		raw, err := json.Marshal(p)
		require.NoError(t, err)

		final, err := ParseFinal(string(raw))
		require.NoError(t, err)

		last := ""
		for i := 1; i <= len(raw); i++ {
			last = ExtractResponse(string(raw[:i]))
		}
		assert.Equal(t, final.Response, last)
	}
}

func TestParseFinal(t *testing.T) {
	payload, err := ParseFinal(`{"response":"Hello world","suggested_actions":[{"label":"Shorten it","action":"shorten","category":"edit"}]}`)
	require.NoError(t, err)
	assert.Equal(t, "Hello world", payload.Response)
	require.Len(t, payload.SuggestedActions, 1)
	assert.Equal(t, "shorten", payload.SuggestedActions[0].Action)

	_, err = ParseFinal(`{"response":"truncat`)
	assert.Error(t, err)
}
