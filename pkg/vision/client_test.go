package vision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExtraction_PlainJSON(t *testing.T) {
	ext, err := parseExtraction(`{"set_name":"2019 Prizm Basketball","card_number":"248","confidence":92}`)
	require.NoError(t, err)
	assert.Equal(t, "2019 Prizm Basketball", ext.SetName)
	assert.Equal(t, "248", ext.CardNumber)
	assert.Equal(t, 92, ext.Confidence)
}

func TestParseExtraction_CodeFenced(t *testing.T) {
	text := "```json\n{\"brand\":\"Invicta\",\"dial_color\":\"black\",\"confidence\":70}\n```"
	ext, err := parseExtraction(text)
	require.NoError(t, err)
	assert.Equal(t, "Invicta", ext.Brand)
	assert.Equal(t, "black", ext.DialColor)
}

func TestParseExtraction_OmittedFieldsStayEmpty(t *testing.T) {
	ext, err := parseExtraction(`{"set_name":"Select","confidence":55}`)
	require.NoError(t, err)
	assert.Empty(t, ext.CardNumber)
	assert.Empty(t, ext.Variant)
}

func TestParseExtraction_ClampsConfidence(t *testing.T) {
	over, err := parseExtraction(`{"confidence":140}`)
	require.NoError(t, err)
	assert.Equal(t, 100, over.Confidence)

	under, err := parseExtraction(`{"confidence":-5}`)
	require.NoError(t, err)
	assert.Equal(t, 0, under.Confidence)
}

func TestParseExtraction_RejectsNonJSON(t *testing.T) {
	_, err := parseExtraction("I could not read this image.")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse extraction")
}

func TestSystemPrompt_PerCategory(t *testing.T) {
	assert.Contains(t, systemPrompt("card"), "card_number")
	assert.Contains(t, systemPrompt("watch"), "ref_number")
}
