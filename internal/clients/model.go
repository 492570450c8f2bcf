package clients

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Contact is the canonical client record embedded in price tables, return
// notes and proposals.
type Contact struct {
	Nome              string `json:"nome"`
	Email             string `json:"email,omitempty"`
	Telefone          string `json:"telefone,omitempty"`
	Empresa           string `json:"empresa,omitempty"`
	CNPJ              string `json:"cnpj,omitempty"`
	Endereco          string `json:"endereco,omitempty"`
	Numero            string `json:"numero,omitempty"`
	Bairro            string `json:"bairro,omitempty"`
	Cidade            string `json:"cidade,omitempty"`
	Estado            string `json:"estado,omitempty"`
	CEP               string `json:"cep,omitempty"`
	InscricaoEstadual string `json:"inscricaoEstadual,omitempty"`
}

type contactFields Contact

// UnmarshalJSON accepts either a bare name string or a structured record.
// Older tables stored clients as plain strings.
func (c *Contact) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*c = Contact{}
		return nil
	case data[0] == '"':
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*c = Contact{Nome: strings.TrimSpace(name)}
		return nil
	case data[0] == '{':
		var fields contactFields
		if err := json.Unmarshal(data, &fields); err != nil {
			return err
		}
		*c = Contact(fields)
		c.Nome = strings.TrimSpace(c.Nome)
		return nil
	default:
		return errors.New("clients: client reference must be a string or an object")
	}
}

// DisplayName is the name shown on documents.
func (c Contact) DisplayName() string {
	if c.Nome != "" {
		return c.Nome
	}
	return c.Empresa
}

// Matches reports whether name refers to this contact, ignoring case and
// surrounding spaces.
func (c Contact) Matches(name string) bool {
	name = strings.TrimSpace(name)
	return name != "" && strings.EqualFold(c.DisplayName(), name)
}

// AddressLine joins street, number, district, city and state.
func (c Contact) AddressLine() string {
	parts := make([]string, 0, 4)
	street := c.Endereco
	if street != "" && c.Numero != "" {
		street += ", " + c.Numero
	}
	for _, p := range []string{street, c.Bairro} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	city := c.Cidade
	if city != "" && c.Estado != "" {
		city += "/" + c.Estado
	} else if city == "" {
		city = c.Estado
	}
	if city != "" {
		parts = append(parts, city)
	}
	if c.CEP != "" {
		parts = append(parts, "CEP "+c.CEP)
	}
	return strings.Join(parts, " - ")
}

// Find returns the contact named name.
func Find(contacts []Contact, name string) (Contact, bool) {
	for _, c := range contacts {
		if c.Matches(name) {
			return c, true
		}
	}
	return Contact{}, false
}

// Client is an address book entry.
type Client struct {
	ID                string    `json:"id"`
	Nome              string    `json:"nome"`
	Email             string    `json:"email,omitempty"`
	Telefone          string    `json:"telefone,omitempty"`
	Empresa           string    `json:"empresa,omitempty"`
	CNPJ              string    `json:"cnpj,omitempty"`
	Endereco          string    `json:"endereco,omitempty"`
	Numero            string    `json:"numero,omitempty"`
	Bairro            string    `json:"bairro,omitempty"`
	Cidade            string    `json:"cidade,omitempty"`
	Estado            string    `json:"estado,omitempty"`
	CEP               string    `json:"cep,omitempty"`
	InscricaoEstadual string    `json:"inscricaoEstadual,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Contact converts the address book entry into the embedded form used when a
// registered client is pulled into a price table or proposal.
func (c Client) Contact() Contact {
	return Contact{
		Nome:              c.Nome,
		Email:             c.Email,
		Telefone:          c.Telefone,
		Empresa:           c.Empresa,
		CNPJ:              c.CNPJ,
		Endereco:          c.Endereco,
		Numero:            c.Numero,
		Bairro:            c.Bairro,
		Cidade:            c.Cidade,
		Estado:            c.Estado,
		CEP:               c.CEP,
		InscricaoEstadual: c.InscricaoEstadual,
	}
}
