package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
)

// The AI-assist endpoints are opaque: requests are forwarded as given and
// responses are returned undecoded.

func (c *Client) GenerateProposalWithAI(ctx context.Context, payload any) (json.RawMessage, error) {
	return c.opaque(ctx, "/propostas/gerar-com-ia", payload)
}

func (c *Client) ProposalFromPrompt(ctx context.Context, prompt string) (json.RawMessage, error) {
	return c.opaque(ctx, "/ia/proposta-por-prompt", map[string]string{"prompt": prompt})
}

func (c *Client) AnalyzeExit(ctx context.Context, payload any) (json.RawMessage, error) {
	return c.opaque(ctx, "/pos-venda/analisar-saida", payload)
}

func (c *Client) opaque(ctx context.Context, route string, payload any) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(ctx, call{method: http.MethodPost, route: route, path: route, body: payload}, &out); err != nil {
		return nil, err
	}
	return out, nil
}
