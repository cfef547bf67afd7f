package history

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanternworks/txlens/pkg/merkle"
)

func seedAnalysis(t *testing.T, storer merkle.Storer, query string) *merkle.Node {
	t.Helper()
	ctx := context.Background()

	root := merkle.NewNode(map[string]any{
		"type":  "query",
		"kind":  "transaction",
		"query": query,
		"chain": "Base",
		"model": "GEMINI_2_5_FLASH",
	}, nil)
	require.NoError(t, storer.Put(ctx, root))

	head := merkle.NewNode(map[string]any{
		"type":        "explanation",
		"explanation": "## Transaction\n\nMoved 1 ETH.",
		"proof": map[string]any{
			"model":              "GEMINI_2_5_FLASH",
			"mode":               "LIVE",
			"payment_hash":       "0xsettlement",
			"settlement_network": "Base Sepolia",
			"inference_network":  "OpenGradient",
		},
	}, root)
	require.NoError(t, storer.Put(ctx, head))

	return head
}

func TestGet(t *testing.T) {
	storer := merkle.NewMemoryStorer()
	defer storer.Close()

	head := seedAnalysis(t, storer, "0xabc123")

	a, err := Get(context.Background(), storer, head.Hash)
	require.NoError(t, err)

	assert.Equal(t, head.Hash, a.Head)
	assert.Equal(t, "transaction", a.Kind)
	assert.Equal(t, "0xabc123", a.Query)
	assert.Equal(t, "Base", a.Chain)
	assert.Contains(t, a.Explanation, "Moved 1 ETH.")
	assert.Equal(t, "LIVE", a.Proof["mode"])
}

func TestGetUnknownHash(t *testing.T) {
	storer := merkle.NewMemoryStorer()
	defer storer.Close()

	_, err := Get(context.Background(), storer, "missing")
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	storer := merkle.NewMemoryStorer()
	defer storer.Close()

	seedAnalysis(t, storer, "0xfirst")
	seedAnalysis(t, storer, "0xsecond")

	analyses, err := Load(context.Background(), storer)
	require.NoError(t, err)
	require.Len(t, analyses, 2)

	queries := []string{analyses[0].Query, analyses[1].Query}
	assert.ElementsMatch(t, []string{"0xfirst", "0xsecond"}, queries)
}

func TestMarkdown(t *testing.T) {
	storer := merkle.NewMemoryStorer()
	defer storer.Close()

	head := seedAnalysis(t, storer, "0xabc123")
	a, err := Get(context.Background(), storer, head.Hash)
	require.NoError(t, err)

	md := a.Markdown()
	assert.Contains(t, md, "Moved 1 ETH.")
	assert.Contains(t, md, "**Query:** `0xabc123`")
	assert.Contains(t, md, "**Payment hash:** `0xsettlement`")
	assert.Contains(t, md, "OpenGradient on Base Sepolia")
}
