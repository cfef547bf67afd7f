package opengradient

import (
	"fmt"
	"sort"
)

// DefaultModel is used when a request doesn't select a model.
const DefaultModel = "GEMINI_2_5_FLASH"

// teeModels maps the friendly TEE model names callers use to the wire
// identifiers the inference gateway expects.
var teeModels = map[string]string{
	"GEMINI_2_5_FLASH": "google/gemini-2.5-flash",
	"GEMINI_2_5_PRO":   "google/gemini-2.5-pro",
	"GPT_4O":           "openai/gpt-4o",
	"LLAMA_3_3_70B":    "meta-llama/llama-3.3-70b-instruct",
	"QWEN_2_5_72B":     "qwen/qwen-2.5-72b-instruct",
}

// ResolveModel translates a friendly model name into its wire identifier.
// An empty name selects DefaultModel.
func ResolveModel(name string) (string, error) {
	if name == "" {
		name = DefaultModel
	}

	wire, ok := teeModels[name]
	if !ok {
		return "", fmt.Errorf("unknown model %q (available: %v)", name, ModelNames())
	}

	return wire, nil
}

// ModelNames returns the friendly names of all supported TEE models, sorted.
func ModelNames() []string {
	names := make([]string, 0, len(teeModels))
	for name := range teeModels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
