package pricetables

import "github.com/luccagoltzman/ia-b2b/internal/clients"

// EntryInput is one catalog line in a create or update request. A missing
// id is generated.
type EntryInput struct {
	ID            string   `json:"id"`
	Produto       string   `json:"produto" validate:"required,max=200"`
	ProdutoCodigo string   `json:"produtoCodigo" validate:"max=50"`
	Marca         string   `json:"marca" validate:"max=100"`
	Categoria     string   `json:"categoria" validate:"max=100"`
	UnidadeMedida string   `json:"unidadeMedida" validate:"required,oneof=unidade kg g litro ml caixa pacote fardo duzia metro outro"`
	Quantidade    float64  `json:"quantidade" validate:"gt=0"`
	ValorUnitario float64  `json:"valorUnitario" validate:"gte=0"`
	AliquotaIpi   *float64 `json:"aliquotaIpi" validate:"omitempty,gte=0,lte=100"`
	Desconto      *float64 `json:"desconto" validate:"omitempty,gte=0"`
	DescontoTipo  string   `json:"descontoTipo" validate:"omitempty,oneof=percentual valor"`
}

// TableInput is the body of create and full update requests. The legacy
// single "cliente" is merged into Clientes.
type TableInput struct {
	Nome               string            `json:"nome" validate:"required,max=200"`
	Produtos           []EntryInput      `json:"produtos" validate:"dive"`
	Clientes           []clients.Contact `json:"clientes"`
	Cliente            *clients.Contact  `json:"cliente"`
	CondicoesPagamento string            `json:"condicoesPagamento"`
	PrazoEntrega       string            `json:"prazoEntrega"`
	Observacoes        string            `json:"observacoes"`
	DataVencimento     string            `json:"dataVencimento" validate:"omitempty,datetime=2006-01-02"`
}

// SendInput optionally restricts a send to some of the table's clients.
type SendInput struct {
	Clientes []string `json:"clientes"`
}

// ReturnInput records that a client answered.
type ReturnInput struct {
	Cliente string `json:"cliente" validate:"required"`
}

// Selecao references one chosen entry.
type Selecao struct {
	ProdutoID string `json:"produtoId" validate:"required"`
}

// GenerateProposalInput is the body of POST /tabelas-produtos/{id}/gerar-proposta.
// IdempotencyKey travels in the Idempotency-Key header, not the body.
type GenerateProposalInput struct {
	Cliente        string    `json:"cliente" validate:"required"`
	Selecoes       []Selecao `json:"selecoes" validate:"required,min=1,dive"`
	IdempotencyKey string    `json:"-"`
}
