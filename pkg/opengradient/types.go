// Package opengradient is a client for the OpenGradient hosted inference
// network. Chat completions run inside a trusted execution environment and
// every settled call returns a payment hash that can be checked on the
// network's explorer, which is the attestation this service passes through
// to its own callers.
package opengradient

// Message is a single chat message.
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// ChatRequest is a chat completion request against a TEE-hosted model.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

// ChatResponse is the network's reply: the model output plus the payment
// hash of the settled inference call.
type ChatResponse struct {
	ChatOutput  Message `json:"chat_output"`
	PaymentHash string  `json:"payment_hash,omitempty"`
}

// ErrorResponse is the error envelope the inference gateway returns.
type ErrorResponse struct {
	Error string `json:"error"`
}
