package visits

// VisitInput is the body of create and update requests.
type VisitInput struct {
	Cliente     string `json:"cliente" validate:"required,max=200"`
	Data        string `json:"data" validate:"required,datetime=2006-01-02"`
	Hora        string `json:"hora" validate:"omitempty,datetime=15:04"`
	Status      string `json:"status"`
	Endereco    string `json:"endereco" validate:"max=300"`
	Observacoes string `json:"observacoes"`
}

// TransitionInput moves a visit to another status.
type TransitionInput struct {
	Status    string  `json:"status" validate:"required"`
	Descricao *string `json:"descricao"`
	Usuario   *string `json:"usuario"`
}

// ListVisitsRequest filters the visit agenda.
type ListVisitsRequest struct {
	Status  *Status
	Cliente string
	From    string
	To      string
}
