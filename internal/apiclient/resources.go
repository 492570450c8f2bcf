package apiclient

import (
	"context"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/luccagoltzman/ia-b2b/internal/clients"
	"github.com/luccagoltzman/ia-b2b/internal/pricetables"
	"github.com/luccagoltzman/ia-b2b/internal/proposals"
	"github.com/luccagoltzman/ia-b2b/internal/visits"
)

func esc(id string) string { return url.PathEscape(id) }

// ============================================================================
// CLIENTES
// ============================================================================

func (c *Client) ListClients(ctx context.Context, search string) ([]clients.Client, error) {
	var out []clients.Client
	q := url.Values{}
	if search != "" {
		q.Set("busca", search)
	}
	err := c.do(ctx, call{method: http.MethodGet, route: "/clientes", path: "/clientes", query: q}, &out)
	return out, err
}

func (c *Client) GetClient(ctx context.Context, id string) (*clients.Client, error) {
	var out clients.Client
	if err := c.do(ctx, call{method: http.MethodGet, route: "/clientes/:id", path: "/clientes/" + esc(id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateClient(ctx context.Context, in clients.ClientInput) (*clients.Client, error) {
	var out clients.Client
	if err := c.do(ctx, call{method: http.MethodPost, route: "/clientes", path: "/clientes", body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateClient(ctx context.Context, id string, in clients.ClientInput) (*clients.Client, error) {
	var out clients.Client
	if err := c.do(ctx, call{method: http.MethodPut, route: "/clientes/:id", path: "/clientes/" + esc(id), body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteClient(ctx context.Context, id string) error {
	return c.do(ctx, call{method: http.MethodDelete, route: "/clientes/:id", path: "/clientes/" + esc(id)}, nil)
}

// ============================================================================
// TABELAS DE PRODUTOS
// ============================================================================

func (c *Client) ListTables(ctx context.Context, status *pricetables.Status) ([]pricetables.PriceTable, error) {
	var out []pricetables.PriceTable
	q := url.Values{}
	if status != nil {
		q.Set("status", string(*status))
	}
	err := c.do(ctx, call{method: http.MethodGet, route: "/tabelas-produtos", path: "/tabelas-produtos", query: q}, &out)
	return out, err
}

func (c *Client) GetTable(ctx context.Context, id string) (*pricetables.PriceTable, error) {
	var out pricetables.PriceTable
	if err := c.do(ctx, call{method: http.MethodGet, route: "/tabelas-produtos/:id", path: "/tabelas-produtos/" + esc(id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateTable(ctx context.Context, in pricetables.TableInput) (*pricetables.PriceTable, error) {
	var out pricetables.PriceTable
	if err := c.do(ctx, call{method: http.MethodPost, route: "/tabelas-produtos", path: "/tabelas-produtos", body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateTable(ctx context.Context, id string, in pricetables.TableInput) (*pricetables.PriceTable, error) {
	var out pricetables.PriceTable
	if err := c.do(ctx, call{method: http.MethodPut, route: "/tabelas-produtos/:id", path: "/tabelas-produtos/" + esc(id), body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteTable(ctx context.Context, id string) error {
	return c.do(ctx, call{method: http.MethodDelete, route: "/tabelas-produtos/:id", path: "/tabelas-produtos/" + esc(id)}, nil)
}

// SendTable marks the table as sent. Empty names sends to every client.
func (c *Client) SendTable(ctx context.Context, id string, names []string) (*pricetables.PriceTable, error) {
	var out pricetables.PriceTable
	body := pricetables.SendInput{Clientes: names}
	if err := c.do(ctx, call{method: http.MethodPost, route: "/tabelas-produtos/:id/enviar", path: "/tabelas-produtos/" + esc(id) + "/enviar", body: body}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RecordReturn(ctx context.Context, id, client string) (*pricetables.PriceTable, error) {
	var out pricetables.PriceTable
	body := pricetables.ReturnInput{Cliente: client}
	if err := c.do(ctx, call{method: http.MethodPost, route: "/tabelas-produtos/:id/retorno", path: "/tabelas-produtos/" + esc(id) + "/retorno", body: body}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateProposal sends the selected entry ids only. A non-empty
// in.IdempotencyKey is sent so the backend rejects replays with 409.
func (c *Client) GenerateProposal(ctx context.Context, tableID string, in pricetables.GenerateProposalInput) (*proposals.Proposal, error) {
	var out proposals.Proposal
	req := call{
		method: http.MethodPost,
		route:  "/tabelas-produtos/:id/gerar-proposta",
		path:   "/tabelas-produtos/" + esc(tableID) + "/gerar-proposta",
		body:   in,
	}
	if in.IdempotencyKey != "" {
		req.header = http.Header{pricetables.IdempotencyHeader: []string{in.IdempotencyKey}}
	}
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TableDocument downloads the client-facing export of a table. format is
// "pdf" or "xlsx".
func (c *Client) TableDocument(ctx context.Context, id, client, format string) ([]byte, string, error) {
	var out []byte
	q := url.Values{}
	if client != "" {
		q.Set("cliente", client)
	}
	h, err := c.raw(ctx, call{
		method: http.MethodGet,
		route:  "/tabelas-produtos/:id/documento." + format,
		path:   "/tabelas-produtos/" + esc(id) + "/documento." + format,
		query:  q,
	}, &out)
	if err != nil {
		return nil, "", err
	}
	return out, attachmentName(h), nil
}

// ============================================================================
// PROPOSTAS
// ============================================================================

// ProposalFilter narrows ListProposals.
type ProposalFilter struct {
	Status  string
	Cliente string
	Limit   int
	Offset  int
}

func (c *Client) ListProposals(ctx context.Context, f ProposalFilter) ([]proposals.Proposal, error) {
	var out []proposals.Proposal
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.Cliente != "" {
		q.Set("cliente", f.Cliente)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		q.Set("offset", strconv.Itoa(f.Offset))
	}
	err := c.do(ctx, call{method: http.MethodGet, route: "/propostas", path: "/propostas", query: q}, &out)
	return out, err
}

func (c *Client) GetProposal(ctx context.Context, id string) (*proposals.Proposal, error) {
	var out proposals.Proposal
	if err := c.do(ctx, call{method: http.MethodGet, route: "/propostas/:id", path: "/propostas/" + esc(id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateProposal(ctx context.Context, in proposals.ProposalInput) (*proposals.Proposal, error) {
	var out proposals.Proposal
	if err := c.do(ctx, call{method: http.MethodPost, route: "/propostas", path: "/propostas", body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProposal(ctx context.Context, id string, in proposals.ProposalInput) (*proposals.Proposal, error) {
	var out proposals.Proposal
	if err := c.do(ctx, call{method: http.MethodPut, route: "/propostas/:id", path: "/propostas/" + esc(id), body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteProposal(ctx context.Context, id string) error {
	return c.do(ctx, call{method: http.MethodDelete, route: "/propostas/:id", path: "/propostas/" + esc(id)}, nil)
}

// TransitionProposal posts {status, descricao}. descricao is sent as null
// when empty.
func (c *Client) TransitionProposal(ctx context.Context, id string, in proposals.TransitionInput) (*proposals.Proposal, error) {
	var out proposals.Proposal
	body := struct {
		Status    string  `json:"status"`
		Descricao *string `json:"descricao"`
		Usuario   *string `json:"usuario,omitempty"`
	}{in.Status, in.Descricao, in.Usuario}
	if err := c.do(ctx, call{method: http.MethodPost, route: "/propostas/:id/status", path: "/propostas/" + esc(id) + "/status", body: body}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) OrderPDF(ctx context.Context, id string) ([]byte, string, error) {
	var out []byte
	h, err := c.raw(ctx, call{method: http.MethodGet, route: "/propostas/:id/pedido.pdf", path: "/propostas/" + esc(id) + "/pedido.pdf"}, &out)
	if err != nil {
		return nil, "", err
	}
	return out, attachmentName(h), nil
}

// ============================================================================
// VISITAS
// ============================================================================

func (c *Client) ListVisits(ctx context.Context, status string) ([]visits.Visit, error) {
	var out []visits.Visit
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	err := c.do(ctx, call{method: http.MethodGet, route: "/visitas", path: "/visitas", query: q}, &out)
	return out, err
}

func (c *Client) GetVisit(ctx context.Context, id string) (*visits.Visit, error) {
	var out visits.Visit
	if err := c.do(ctx, call{method: http.MethodGet, route: "/visitas/:id", path: "/visitas/" + esc(id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateVisit(ctx context.Context, in visits.VisitInput) (*visits.Visit, error) {
	var out visits.Visit
	if err := c.do(ctx, call{method: http.MethodPost, route: "/visitas", path: "/visitas", body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateVisit(ctx context.Context, id string, in visits.VisitInput) (*visits.Visit, error) {
	var out visits.Visit
	if err := c.do(ctx, call{method: http.MethodPut, route: "/visitas/:id", path: "/visitas/" + esc(id), body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteVisit(ctx context.Context, id string) error {
	return c.do(ctx, call{method: http.MethodDelete, route: "/visitas/:id", path: "/visitas/" + esc(id)}, nil)
}

func (c *Client) TransitionVisit(ctx context.Context, id string, in visits.TransitionInput) (*visits.Visit, error) {
	var out visits.Visit
	if err := c.do(ctx, call{method: http.MethodPost, route: "/visitas/:id/status", path: "/visitas/" + esc(id) + "/status", body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func attachmentName(h http.Header) string {
	if h == nil {
		return ""
	}
	_, params, err := mime.ParseMediaType(h.Get("Content-Disposition"))
	if err != nil {
		return ""
	}
	return params["filename"]
}
