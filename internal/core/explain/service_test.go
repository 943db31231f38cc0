package explain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"skincare-ingredients/internal/core/ai/service"
	"skincare-ingredients/internal/core/chemistry"
	"skincare-ingredients/internal/core/ingredient"
	"skincare-ingredients/internal/infrastructure/store"
)

type mockCache struct {
	mock.Mock
}

func (m *mockCache) GetMany(ctx context.Context, names []string) (map[string]store.ExplanationRecord, error) {
	args := m.Called(ctx, names)
	rows, _ := args.Get(0).(map[string]store.ExplanationRecord)
	return rows, args.Error(1)
}

func (m *mockCache) UpsertMany(ctx context.Context, records []store.ExplanationRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

type fakeResolver struct {
	weights map[string]float64
	err     error
	calls   [][]string
}

func (f *fakeResolver) Resolve(ctx context.Context, raws []string, forceExternal bool) ([]chemistry.Result, error) {
	f.calls = append(f.calls, raws)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]chemistry.Result, len(raws))
	for i, name := range raws {
		out[i] = chemistry.Result{Name: name, SearchedName: name, Source: ingredient.SourceLocal}
		if mw, ok := f.weights[name]; ok {
			out[i].Data = &chemistry.Compound{ExternalID: 1, MolecularWeight: mw}
			out[i].Source = ingredient.SourceAPI
		}
	}
	return out, nil
}

func recordNames(records []store.ExplanationRecord) []string {
	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.Name
	}
	return names
}

func TestExplainPreservesOrderAndDuplicates(t *testing.T) {
	lex := testLexicon()
	resolver := &fakeResolver{weights: map[string]float64{"water": 18.015}}
	cache := &mockCache{}
	cache.On("GetMany", mock.Anything, []string{"water", "glycerin"}).
		Return(map[string]store.ExplanationRecord{
			"water": {Name: "water", Role: "supporting", Text: "Water dissolves the other ingredients in the formula.", Source: "ai"},
		}, nil)
	cache.On("UpsertMany", mock.Anything, mock.MatchedBy(func(records []store.ExplanationRecord) bool {
		return assert.ObjectsAreEqual([]string{"glycerin"}, recordNames(records))
	})).Return(nil)

	svc := NewService(lex, resolver, cache, NewGenerator(lex, nil, 8, 2), nil)
	out, err := svc.Explain(context.Background(), []Item{
		{Name: "Aqua", Category: "base"},
		{Name: "Glycerine"},
		{Name: "Water"},
	})
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, "Aqua", out[0].Name)
	assert.Equal(t, "base", out[0].Category)
	assert.Equal(t, ingredient.SourceAI, out[0].Source)
	require.NotNil(t, out[0].MolecularWeight)
	assert.InDelta(t, 18.015, *out[0].MolecularWeight, 1e-9)

	assert.Equal(t, "Glycerine", out[1].Name)
	assert.Equal(t, ingredient.SourceKnowledge, out[1].Source)
	assert.Equal(t, ingredient.RoleHumectant, out[1].Role)
	assert.Nil(t, out[1].MolecularWeight)

	assert.Equal(t, "Water", out[2].Name)
	assert.Equal(t, out[0].Explanation, out[2].Explanation)

	assert.Equal(t, [][]string{{"water", "glycerin"}}, resolver.calls)
	cache.AssertExpectations(t)
}

func TestExplainRegeneratesBoilerplateCacheEntries(t *testing.T) {
	lex := testLexicon()
	primary := &scriptedProvider{name: "primary", replies: []string{
		`[{"name":"squalane","explanation":"Squalane is a light oil that softens skin and mimics natural sebum."}]`,
	}}
	cache := &mockCache{}
	cache.On("GetMany", mock.Anything, []string{"squalane"}).
		Return(map[string]store.ExplanationRecord{
			"squalane": {Name: "squalane", Role: "emollient", Text: Template("squalane", ingredient.RoleEmollient), Source: "fallback"},
		}, nil)
	cache.On("UpsertMany", mock.Anything, mock.MatchedBy(func(records []store.ExplanationRecord) bool {
		return len(records) == 1 && records[0].Source == ingredient.SourceAI && records[0].Role == "emollient"
	})).Return(nil)

	svc := NewService(lex, nil, cache, NewGenerator(lex, service.NewChain(nil, primary), 8, 2), nil)
	out, err := svc.Explain(context.Background(), []Item{{Name: "Squalane"}})
	require.NoError(t, err)

	assert.Equal(t, ingredient.SourceAI, out[0].Source)
	assert.Equal(t, ingredient.RoleEmollient, out[0].Role)
	assert.Equal(t, 1, primary.calls())
	cache.AssertExpectations(t)
}

func TestExplainDegradesOnDependencyFailures(t *testing.T) {
	lex := testLexicon()
	resolver := &fakeResolver{err: errors.New("db down")}
	cache := &mockCache{}
	cache.On("GetMany", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))
	cache.On("UpsertMany", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	svc := NewService(lex, resolver, cache, NewGenerator(lex, nil, 8, 2), nil)
	out, err := svc.Explain(context.Background(), []Item{{Name: "Methylparaben"}, {Name: "  "}})
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, ingredient.RolePreservative, out[0].Role)
	assert.Equal(t, ingredient.SourceFallback, out[0].Source)
	assert.Equal(t, Template("methylparaben", ingredient.RolePreservative), out[0].Explanation)
	assert.Nil(t, out[0].MolecularWeight)

	assert.Equal(t, "  ", out[1].Name)
	assert.Equal(t, ingredient.SourceFallback, out[1].Source)
	assert.Equal(t, emptyNameExplanation, out[1].Explanation)
}

func TestExplainUsesMolecularWeightForRole(t *testing.T) {
	lex := testLexicon()
	resolver := &fakeResolver{weights: map[string]float64{"centella extract": 488.7}}

	svc := NewService(lex, resolver, nil, NewGenerator(lex, nil, 8, 2), nil)
	out, err := svc.Explain(context.Background(), []Item{{Name: "Centella Extract"}})
	require.NoError(t, err)

	assert.Equal(t, ingredient.RoleActive, out[0].Role)
	require.NotNil(t, out[0].MolecularWeight)
	assert.InDelta(t, 488.7, *out[0].MolecularWeight, 1e-9)
}

func TestExplainCancelledContext(t *testing.T) {
	lex := testLexicon()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := NewService(lex, nil, nil, NewGenerator(lex, nil, 8, 2), nil)
	_, err := svc.Explain(ctx, []Item{{Name: "Urea"}})
	assert.ErrorIs(t, err, context.Canceled)
}
