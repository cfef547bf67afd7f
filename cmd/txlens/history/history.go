// Package history reads recorded analyses out of an attestation log for
// the CLI commands that display them.
package history

import (
	"context"
	"fmt"
	"strings"

	"github.com/lanternworks/txlens/pkg/merkle"
)

// Analysis is one recorded analysis, flattened from its record chain.
type Analysis struct {
	Head        string
	Kind        string
	Query       string
	Chain       string
	Model       string
	Explanation string
	Proof       map[string]any
}

// Load assembles a displayable analysis from every leaf in the log.
func Load(ctx context.Context, storer merkle.Storer) ([]*Analysis, error) {
	leaves, err := storer.Leaves(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list analyses: %w", err)
	}

	analyses := make([]*Analysis, 0, len(leaves))
	for _, leaf := range leaves {
		a, err := Get(ctx, storer, leaf.Hash)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, a)
	}

	return analyses, nil
}

// Get loads a single analysis by its head hash.
func Get(ctx context.Context, storer merkle.Storer, head string) (*Analysis, error) {
	chain, err := storer.Ancestry(ctx, head)
	if err != nil {
		return nil, fmt.Errorf("could not load analysis %s: %w", head, err)
	}

	a := &Analysis{Head: head}

	// Ancestry runs head-first: the explanation record, then the query
	// record at the root.
	for _, n := range chain {
		content, ok := n.Content.(map[string]any)
		if !ok {
			continue
		}

		switch stringField(content, "type") {
		case "explanation":
			a.Explanation = stringField(content, "explanation")
			if proof, ok := content["proof"].(map[string]any); ok {
				a.Proof = proof
			}
		case "query":
			a.Kind = stringField(content, "kind")
			a.Query = stringField(content, "query")
			a.Chain = stringField(content, "chain")
			a.Model = stringField(content, "model")
		}
	}

	return a, nil
}

// Markdown renders the analysis for terminal display.
func (a *Analysis) Markdown() string {
	var b strings.Builder

	b.WriteString(a.Explanation)
	b.WriteString("\n\n---\n\n")

	fmt.Fprintf(&b, "**Query:** `%s` (%s on %s)\n\n", a.Query, a.Kind, a.Chain)

	if a.Proof != nil {
		fmt.Fprintf(&b, "**Model:** %s  \n", stringField(a.Proof, "model"))
		fmt.Fprintf(&b, "**Mode:** %s  \n", stringField(a.Proof, "mode"))
		fmt.Fprintf(&b, "**Payment hash:** `%s`  \n", stringField(a.Proof, "payment_hash"))
		fmt.Fprintf(&b, "**Settlement:** %s on %s\n", stringField(a.Proof, "inference_network"), stringField(a.Proof, "settlement_network"))
	}

	return b.String()
}

// ShortHead is the abbreviated head hash used in listings.
func (a *Analysis) ShortHead() string {
	if len(a.Head) <= 12 {
		return a.Head
	}
	return a.Head[:12]
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
