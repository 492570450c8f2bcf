package proposals

// ProposalInput is the body of create and full update requests. Status is
// only honoured on create.
type ProposalInput struct {
	Titulo string `json:"titulo" validate:"max=200"`

	Cliente             string `json:"cliente" validate:"required,max=200"`
	ClienteCnpj         string `json:"clienteCnpj" validate:"max=20"`
	ClienteEndereco     string `json:"clienteEndereco" validate:"max=200"`
	ClienteNumero       string `json:"clienteNumero" validate:"max=20"`
	ClienteBairro       string `json:"clienteBairro" validate:"max=100"`
	ClienteCidade       string `json:"clienteCidade" validate:"max=100"`
	ClienteCep          string `json:"clienteCep" validate:"max=10"`
	ClienteEstado       string `json:"clienteEstado" validate:"max=2"`
	ClienteTelefone     string `json:"clienteTelefone" validate:"max=50"`
	ClienteEmail        string `json:"clienteEmail" validate:"omitempty,email"`
	ClienteNomeFantasia string `json:"clienteNomeFantasia" validate:"max=200"`

	Produto       string   `json:"produto" validate:"max=200"`
	ProdutoCodigo string   `json:"produtoCodigo" validate:"max=50"`
	Marca         string   `json:"marca" validate:"max=100"`
	Categoria     string   `json:"categoria" validate:"max=100"`
	UnidadeMedida string   `json:"unidadeMedida" validate:"max=20"`
	ValorUnitario *float64 `json:"valorUnitario" validate:"omitempty,gte=0"`
	Quantidade    *float64 `json:"quantidade" validate:"omitempty,gte=0"`
	AliquotaIpi   *float64 `json:"aliquotaIpi" validate:"omitempty,gte=0,lte=100"`
	Desconto      *float64 `json:"desconto" validate:"omitempty,gte=0"`
	DescontoTipo  string   `json:"descontoTipo" validate:"omitempty,oneof=percentual valor"`

	CondicoesPagamento    string   `json:"condicoesPagamento"`
	PrazoEntrega          string   `json:"prazoEntrega"`
	ValorFrete            *float64 `json:"valorFrete" validate:"omitempty,gte=0"`
	TipoPedido            string   `json:"tipoPedido" validate:"max=50"`
	Transportadora        string   `json:"transportadora" validate:"max=200"`
	InformacoesAdicionais string   `json:"informacoesAdicionais"`

	Descricao                string `json:"descricao"`
	Observacoes              string `json:"observacoes"`
	EstrategiaRepresentacao  string `json:"estrategiaRepresentacao"`
	PublicoAlvo              string `json:"publicoAlvo"`
	DiferenciaisCompetitivos string `json:"diferenciaisCompetitivos"`

	Valor          *float64 `json:"valor" validate:"omitempty,gte=0"`
	Status         string   `json:"status"`
	DataVencimento string   `json:"dataVencimento" validate:"omitempty,datetime=2006-01-02"`
}

// TransitionInput is the body of POST /propostas/{id}/status.
type TransitionInput struct {
	Status    string  `json:"status" validate:"required"`
	Descricao *string `json:"descricao"`
	Usuario   *string `json:"usuario"`
}

// ListProposalsRequest filters the proposal list.
type ListProposalsRequest struct {
	Status  *Status
	Cliente string
	Limit   int
	Offset  int
}
