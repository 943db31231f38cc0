package explain

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skincare-ingredients/internal/core/ai/provider"
	"skincare-ingredients/internal/core/ai/service"
	"skincare-ingredients/internal/core/ingredient"
)

// scriptedProvider 依序回傳預先設定的內容
type scriptedProvider struct {
	mu      sync.Mutex
	name    string
	replies []string
	err     error
	prompts []string
}

func (p *scriptedProvider) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prompts = append(p.prompts, req.Messages[len(req.Messages)-1].Content)
	if p.err != nil {
		return nil, p.err
	}
	if len(p.replies) == 0 {
		return nil, errors.New("no scripted reply")
	}
	reply := p.replies[0]
	p.replies = p.replies[1:]
	return &provider.Response{Content: reply, Provider: p.name}, nil
}

func (p *scriptedProvider) Name() string              { return p.name }
func (p *scriptedProvider) GetModel() string          { return p.name + "-model" }
func (p *scriptedProvider) GetTimeout() time.Duration { return time.Second }
func (p *scriptedProvider) Close() error              { return nil }

func (p *scriptedProvider) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.prompts)
}

func subjects(names ...string) []Subject {
	out := make([]Subject, len(names))
	for i, n := range names {
		out[i] = Subject{Name: n, Role: ingredient.RoleSupporting}
	}
	return out
}

func TestGenerateWithoutProviderIsDeterministic(t *testing.T) {
	g := NewGenerator(testLexicon(), nil, 8, 2)

	first := g.Generate(context.Background(), subjects("squalane", "glycerin"))
	second := g.Generate(context.Background(), subjects("squalane", "glycerin"))

	assert.Equal(t, first, second)
	assert.Equal(t, ingredient.SourceFallback, first["squalane"].Source)
	assert.Equal(t, Template("squalane", ingredient.RoleSupporting), first["squalane"].Text)

	assert.Equal(t, ingredient.SourceKnowledge, first["glycerin"].Source)
	assert.Equal(t, "Glycerin pulls water into the outer layer of the skin. It is one of the most studied humectants.", first["glycerin"].Text)
}

func TestGenerateEmptyChainFallsBack(t *testing.T) {
	g := NewGenerator(testLexicon(), service.NewChain(nil), 8, 2)

	out := g.Generate(context.Background(), subjects("squalane"))
	assert.Equal(t, ingredient.SourceFallback, out["squalane"].Source)
}

func TestGenerateUsesModelOutput(t *testing.T) {
	primary := &scriptedProvider{name: "primary", replies: []string{
		"```json\n[{\"name\":\"Squalane\",\"explanation\":\"Squalane is a light oil that softens skin. It mimics natural sebum. It never clogs.\"}]\n```",
	}}
	g := NewGenerator(testLexicon(), service.NewChain(nil, primary), 8, 2)

	out := g.Generate(context.Background(), subjects("squalane", "urea"))

	assert.Equal(t, ingredient.SourceAI, out["squalane"].Source)
	assert.Equal(t, "Squalane is a light oil that softens skin. It mimics natural sebum.", out["squalane"].Text)
	// 模型遺漏的成分使用模板
	assert.Equal(t, ingredient.SourceFallback, out["urea"].Source)
	assert.Equal(t, 1, primary.calls())
	assert.Contains(t, primary.prompts[0], "1. squalane (role: supporting)")
	assert.Contains(t, primary.prompts[0], "2. urea (role: supporting)")
}

func TestGenerateMalformedOutputMovesToNextProvider(t *testing.T) {
	primary := &scriptedProvider{name: "primary", replies: []string{"Sorry, I can't produce JSON today."}}
	secondary := &scriptedProvider{name: "secondary", replies: []string{
		`{"results":[{"name":"urea","explanation":"Urea helps skin hold water and smooths rough patches."}]}`,
	}}
	g := NewGenerator(testLexicon(), service.NewChain(nil, primary, secondary), 8, 2)

	out := g.Generate(context.Background(), subjects("urea"))

	assert.Equal(t, ingredient.SourceAI, out["urea"].Source)
	assert.Equal(t, 1, primary.calls())
	assert.Equal(t, 1, secondary.calls())
}

func TestGenerateSkipsCitationBrackets(t *testing.T) {
	primary := &scriptedProvider{name: "primary", replies: []string{
		"Per the INCI list [1]:\n[{\"name\":\"urea\",\"explanation\":\"Urea helps skin hold water and smooths rough patches.\"}]",
	}}
	secondary := &scriptedProvider{name: "secondary"}
	g := NewGenerator(testLexicon(), service.NewChain(nil, primary, secondary), 8, 2)

	out := g.Generate(context.Background(), subjects("urea"))

	assert.Equal(t, ingredient.SourceAI, out["urea"].Source)
	assert.Equal(t, 0, secondary.calls())
}

func TestGenerateAllProvidersFail(t *testing.T) {
	primary := &scriptedProvider{name: "primary", err: errors.New("status 500")}
	secondary := &scriptedProvider{name: "secondary", err: errors.New("timeout")}
	g := NewGenerator(testLexicon(), service.NewChain(nil, primary, secondary), 8, 2)

	out := g.Generate(context.Background(), subjects("urea", "squalane"))

	for _, name := range []string{"urea", "squalane"} {
		assert.Equal(t, ingredient.SourceFallback, out[name].Source)
		assert.Equal(t, Template(name, ingredient.RoleSupporting), out[name].Text)
	}
}

func TestGenerateRejectsLowQualityModelText(t *testing.T) {
	primary := &scriptedProvider{name: "primary", replies: []string{
		`[{"name":"urea","explanation":"Unknown ingredient."}]`,
	}}
	g := NewGenerator(testLexicon(), service.NewChain(nil, primary), 8, 2)

	out := g.Generate(context.Background(), subjects("urea"))
	assert.Equal(t, ingredient.SourceFallback, out["urea"].Source)
}

func TestGenerateBatchesByEight(t *testing.T) {
	names := make([]string, 10)
	for i := range names {
		names[i] = "extract " + string(rune('a'+i))
	}
	reply := func(batch []string) string {
		parts := make([]string, len(batch))
		for i, n := range batch {
			parts[i] = `{"name":"` + n + `","explanation":"` + n + ` calms the look of redness on skin."}`
		}
		return "[" + strings.Join(parts, ",") + "]"
	}
	primary := &scriptedProvider{name: "primary", replies: []string{reply(names[:8]), reply(names[8:])}}
	g := NewGenerator(testLexicon(), service.NewChain(nil, primary), 8, 2)

	out := g.Generate(context.Background(), subjects(names...))

	require.Len(t, out, 10)
	assert.Equal(t, 2, primary.calls())
	for _, n := range names {
		assert.Equal(t, ingredient.SourceAI, out[n].Source, n)
	}
}
