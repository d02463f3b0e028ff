package decompress

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/spr/internal/generative"
)

func TestExpandConcepts_RequestShape(t *testing.T) {
	var got generative.Request
	stub := stubService{fn: func(req generative.Request) (string, error) {
		got = req
		return "reconstructed prose", nil
	}}

	o := Outline{
		Plan: Plan{
			Budgets: []Budget{{Min: 27, Max: 33}},
		},
		Concepts: []Concept{{Ordinal: 0, Text: "the causeway held through spring"}},
	}
	s := expandConcepts{exp: expander{svc: stub, style: generative.StyleParagraph}}

	d, err := s.Run(context.Background(), o)
	require.NoError(t, err)

	assert.Equal(t, expandInstruction, got.Instruction)
	assert.Equal(t, "the causeway held through spring", got.Content)
	assert.Equal(t, 27, got.MinWords)
	assert.Equal(t, 33, got.MaxWords)
	assert.Equal(t, generative.StyleParagraph, got.Style)
	require.Len(t, d.Passages, 1)
	assert.Equal(t, "reconstructed prose", d.Passages[0])
}

func TestExpandConcepts_AlignedWithConcepts(t *testing.T) {
	stub := stubService{fn: func(req generative.Request) (string, error) {
		return "about " + strings.Fields(req.Content)[0], nil
	}}

	o := Outline{
		Plan: Plan{Budgets: []Budget{{Min: 1, Max: 10}, {Min: 1, Max: 10}}},
		Concepts: []Concept{
			{Ordinal: 0, Text: "harbor traffic grew"},
			{Ordinal: 1, Text: "quarry output fell"},
		},
	}
	s := expandConcepts{exp: expander{svc: stub, style: generative.StyleClause}}

	d, err := s.Run(context.Background(), o)
	require.NoError(t, err)
	assert.Equal(t, []string{"about harbor", "about quarry"}, d.Passages)
}

func TestExpandConcepts_ErrorCarriesOrdinal(t *testing.T) {
	boom := errors.New("model refused")
	stub := stubService{fn: func(req generative.Request) (string, error) {
		if strings.Contains(req.Content, "poison") {
			return "", boom
		}
		return "fine", nil
	}}

	o := Outline{
		Plan: Plan{Budgets: []Budget{{}, {}}},
		Concepts: []Concept{
			{Ordinal: 0, Text: "clean statement"},
			{Ordinal: 3, Text: "poison statement"},
		},
	}
	s := expandConcepts{exp: expander{svc: stub, style: generative.StyleParagraph}}

	_, err := s.Run(context.Background(), o)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "statement 3")
}

func TestExpandConcepts_EmptyResponseRejected(t *testing.T) {
	stub := stubService{fn: func(generative.Request) (string, error) {
		return "   \n", nil
	}}

	o := Outline{
		Plan:     Plan{Budgets: []Budget{{}}},
		Concepts: []Concept{{Ordinal: 0, Text: "statement"}},
	}
	s := expandConcepts{exp: expander{svc: stub, style: generative.StyleParagraph}}

	_, err := s.Run(context.Background(), o)
	assert.ErrorIs(t, err, generative.ErrEmptyResponse)
}
