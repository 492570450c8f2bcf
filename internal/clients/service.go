package clients

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service implements address book use cases.
type Service struct {
	repo  Repository
	clock func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) Create(ctx context.Context, in ClientInput) (*Client, error) {
	now := s.clock()
	c := fromInput(in)
	c.ID = uuid.NewString()
	c.CreatedAt = now
	c.UpdatedAt = now
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return &c, nil
}

func (s *Service) Update(ctx context.Context, id string, in ClientInput) (*Client, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c := fromInput(in)
	c.ID = existing.ID
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = s.clock()
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update client: %w", err)
	}
	return &c, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Client, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListClientsRequest) ([]Client, int, error) {
	if req.Limit <= 0 || req.Limit > 500 {
		req.Limit = 100
	}
	if req.Offset < 0 {
		req.Offset = 0
	}
	return s.repo.List(ctx, req)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func fromInput(in ClientInput) Client {
	return Client{
		Nome:              strings.TrimSpace(in.Nome),
		Email:             strings.TrimSpace(in.Email),
		Telefone:          strings.TrimSpace(in.Telefone),
		Empresa:           strings.TrimSpace(in.Empresa),
		CNPJ:              strings.TrimSpace(in.CNPJ),
		Endereco:          strings.TrimSpace(in.Endereco),
		Numero:            strings.TrimSpace(in.Numero),
		Bairro:            strings.TrimSpace(in.Bairro),
		Cidade:            strings.TrimSpace(in.Cidade),
		Estado:            strings.ToUpper(strings.TrimSpace(in.Estado)),
		CEP:               strings.TrimSpace(in.CEP),
		InscricaoEstadual: strings.TrimSpace(in.InscricaoEstadual),
	}
}
