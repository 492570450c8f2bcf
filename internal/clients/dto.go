package clients

// ClientInput is the body of create and full update requests.
type ClientInput struct {
	Nome              string `json:"nome" validate:"required,max=200"`
	Email             string `json:"email" validate:"omitempty,email"`
	Telefone          string `json:"telefone" validate:"max=50"`
	Empresa           string `json:"empresa" validate:"max=200"`
	CNPJ              string `json:"cnpj" validate:"max=20"`
	Endereco          string `json:"endereco" validate:"max=200"`
	Numero            string `json:"numero" validate:"max=20"`
	Bairro            string `json:"bairro" validate:"max=100"`
	Cidade            string `json:"cidade" validate:"max=100"`
	Estado            string `json:"estado" validate:"max=2"`
	CEP               string `json:"cep" validate:"max=10"`
	InscricaoEstadual string `json:"inscricaoEstadual" validate:"max=30"`
}

// ListClientsRequest filters the address book.
type ListClientsRequest struct {
	Search string
	Limit  int
	Offset int
}
