package explain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skincare-ingredients/internal/core/ingredient"
)

func testLexicon() *ingredient.Lexicon {
	return ingredient.NewLexicon(
		map[string]string{"aqua": "water", "glycerine": "glycerin"},
		[]ingredient.KnowledgeEntry{{
			CanonicalName: "glycerin",
			Description:   "Glycerin pulls water into the outer layer of the skin. It is one of the most studied humectants. It is also cheap.",
			Role:          ingredient.RoleHumectant,
		}},
		[]string{"fragrance"},
	)
}

func floatPtr(v float64) *float64 { return &v }

func TestClassifyRole(t *testing.T) {
	kb := testLexicon().Knowledge

	tests := []struct {
		name   string
		weight *float64
		want   ingredient.Role
	}{
		{"glycerin", nil, ingredient.RoleHumectant},
		{"methylparaben", nil, ingredient.RolePreservative},
		{"linalool", nil, ingredient.RoleFragrance},
		{"polysorbate 20", nil, ingredient.RoleEmulsifier},
		{"dimethicone", nil, ingredient.RoleOcclusive},
		{"shea butter", nil, ingredient.RoleEmollient},
		{"salicylic acid", nil, ingredient.RoleActive},
		{"centella extract", floatPtr(180.2), ingredient.RoleActive},
		{"centella extract", floatPtr(950), ingredient.RoleSupporting},
		{"centella extract", nil, ingredient.RoleSupporting},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyRole(tt.name, kb, tt.weight), tt.name)
	}
}

func TestTemplateDeterministic(t *testing.T) {
	a := Template("squalane", ingredient.RoleEmollient)
	b := Template("squalane", ingredient.RoleEmollient)

	assert.Equal(t, a, b)
	assert.Contains(t, a, "Squalane is an emollient")
	assert.Contains(t, Template("", ingredient.RoleActive), "This ingredient")
	assert.Equal(t, Template("x", ingredient.RoleSupporting), Template("x", ingredient.Role("unknown")))
}

func TestIsUsable(t *testing.T) {
	assert.False(t, IsUsable(""))
	assert.False(t, IsUsable("   "))
	assert.False(t, IsUsable("Too short."))
	assert.False(t, IsUsable("No description available for this ingredient."))
	assert.False(t, IsUsable("Squalane is commonly used in cosmetics for many purposes."))
	assert.False(t, IsUsable(Template("squalane", ingredient.RoleEmollient)))
	assert.True(t, IsUsable("Squalane is a lightweight oil that softens skin without feeling greasy."))
}

func TestParseEntries(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []Entry
	}{
		{
			name: "fenced array",
			raw:  "Sure!\n```json\n[{\"name\":\"water\",\"explanation\":\"Water dissolves other ingredients.\"}]\n```",
			want: []Entry{{Name: "water", Explanation: "Water dissolves other ingredients."}},
		},
		{
			name: "results wrapper",
			raw:  `{"results":[{"name":"urea","explanation":"Urea softens rough skin."},{"name":"","explanation":"x"}]}`,
			want: []Entry{{Name: "urea", Explanation: "Urea softens rough skin."}},
		},
		{
			name: "name to text map",
			raw:  `{"water":"Water is the base.","squalane":{"explanation":"Squalane softens."}}`,
			want: []Entry{
				{Name: "squalane", Explanation: "Squalane softens."},
				{Name: "water", Explanation: "Water is the base."},
			},
		},
		{
			name: "bracketed citation before array",
			raw:  "Based on [1] and {2}, here you go: [{\"name\":\"urea\",\"explanation\":\"Urea softens rough skin.\"}]",
			want: []Entry{{Name: "urea", Explanation: "Urea softens rough skin."}},
		},
		{
			name: "single object",
			raw:  `here: {"name":"urea","explanation":"Urea softens rough skin."} done`,
			want: []Entry{{Name: "urea", Explanation: "Urea softens rough skin."}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEntries(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseEntriesMalformed(t *testing.T) {
	for _, raw := range []string{
		"I cannot help with that.",
		`[{"name":"water"}]`,
		`[]`,
		`{"results":[{"explanation":"missing name"}]}`,
	} {
		_, err := ParseEntries(raw)
		assert.True(t, errors.Is(err, ErrMalformedOutput), raw)
	}
}

func TestTrimSentences(t *testing.T) {
	assert.Equal(t, "One. Two!", TrimSentences("One.  Two! Three?", 2))
	assert.Equal(t, "Contains 2.5 percent acid. Works well.", TrimSentences("Contains 2.5 percent acid. Works well. Extra.", 2))
	assert.Equal(t, "No terminator here", TrimSentences("No terminator\nhere", 2))
}
