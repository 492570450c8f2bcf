package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/luccagoltzman/ia-b2b/internal/apiclient"
	"github.com/luccagoltzman/ia-b2b/internal/pricing"
	"github.com/luccagoltzman/ia-b2b/internal/proposals"
	"github.com/luccagoltzman/ia-b2b/internal/workbench"
)

func (a *App) proposalsCommand(ctx context.Context, args []string) int {
	fs := a.flags("propostas")
	status := fs.String("status", "", "filtra por status")
	client := fs.String("cliente", "", "filtra por cliente")
	limit := fs.Int("limite", 50, "quantidade máxima")
	asJSON := fs.Bool("json", false, "saída em JSON")
	if code, done := parse(fs, args); done {
		return code
	}
	if *status != "" {
		if _, err := proposals.ParseStatus(*status); err != nil {
			return a.fail("propostas", err)
		}
	}

	list, err := a.deps.Backend.ListProposals(ctx, apiclient.ProposalFilter{Status: *status, Cliente: *client, Limit: *limit})
	if err != nil {
		return a.fail("propostas", err)
	}
	if *asJSON {
		return a.printJSON(list)
	}
	w := tabwriter.NewWriter(a.deps.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tCLIENTE\tSTATUS\tVALOR\tCRIADA EM")
	for _, p := range list {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Cliente, statusText(p.Status),
			pricing.FormatBRL(decimal.NewFromFloat(p.Valor)), p.DataCriacao.Format("02/01/2006"))
	}
	_ = w.Flush()
	return ExitOK
}

// statusText prints the label of a known status and flags anything else
// instead of dressing the raw code up as a label.
func statusText(s proposals.Status) string {
	if info, ok := s.Info(); ok {
		return info.Label
	}
	return fmt.Sprintf("%s (desconhecido)", s)
}

// listPage pages through GET /propostas for the desk's lookup fallback.
func (a *App) listPage(ctx context.Context, offset, limit int) ([]proposals.Proposal, error) {
	return a.deps.Backend.ListProposals(ctx, apiclient.ProposalFilter{Limit: limit, Offset: offset})
}

type proposalDetail struct {
	Proposta  proposals.Proposal `json:"proposta"`
	Sintetico bool               `json:"historicoSintetico"`
	Opcoes    []string           `json:"opcoes"`
}

func (a *App) proposalCommand(ctx context.Context, args []string) int {
	fs := a.flags("proposta")
	id := fs.String("id", "", "id da proposta (obrigatório)")
	asJSON := fs.Bool("json", false, "saída em JSON")
	if code, done := parse(fs, args); done {
		return code
	}
	if *id == "" {
		a.errorf("proposta: --id é obrigatório")
		return ExitUsage
	}

	desk := workbench.NewDesk(a.deps.Backend, a.deps.Actor, a.deps.Logger)
	detail, err := desk.Lookup(ctx, *id, a.listPage)
	if err != nil {
		return a.fail("proposta", err)
	}
	options := workbench.Options(detail.Proposal.Status)

	if *asJSON {
		out := proposalDetail{Proposta: detail.Proposal, Sintetico: detail.Synthetic}
		for _, o := range options {
			out.Opcoes = append(out.Opcoes, string(o.Status))
		}
		return a.printJSON(out)
	}

	p := detail.Proposal
	info, _ := p.Status.Info()
	_, _ = fmt.Fprintf(a.deps.Stdout, "Proposta %s\n", p.ID)
	_, _ = fmt.Fprintf(a.deps.Stdout, "Cliente: %s\n", p.Cliente)
	_, _ = fmt.Fprintf(a.deps.Stdout, "Status: %s %s\n", info.Icon, info.Label)
	_, _ = fmt.Fprintf(a.deps.Stdout, "Valor: %s\n", pricing.FormatBRL(decimal.NewFromFloat(p.Valor)))
	_, _ = fmt.Fprintln(a.deps.Stdout, "Histórico:")
	if detail.Synthetic {
		_, _ = fmt.Fprintln(a.deps.Stdout, "  (histórico indisponível, exibindo o status atual)")
	}
	for _, cp := range p.Checkpoints {
		line := fmt.Sprintf("  %s  %s", cp.Data.Format("02/01/2006 15:04"), cp.Label)
		if cp.Usuario != nil {
			line += " por " + *cp.Usuario
		}
		if cp.Descricao != nil {
			line += " - " + *cp.Descricao
		}
		_, _ = fmt.Fprintln(a.deps.Stdout, line)
	}
	_, _ = fmt.Fprintln(a.deps.Stdout, "Próximos status possíveis:")
	for _, o := range options {
		_, _ = fmt.Fprintf(a.deps.Stdout, "  %-22s %s %s\n", o.Status, o.Icon, o.Label)
	}
	return ExitOK
}

func (a *App) statusCommand(ctx context.Context, args []string) int {
	fs := a.flags("status")
	id := fs.String("id", "", "id da proposta (obrigatório)")
	target := fs.String("para", "", "novo status (obrigatório)")
	desc := fs.String("descricao", "", "observação registrada no histórico")
	asJSON := fs.Bool("json", false, "saída em JSON")
	if code, done := parse(fs, args); done {
		return code
	}
	if *id == "" {
		a.errorf("status: --id é obrigatório")
		return ExitUsage
	}

	desk := workbench.NewDesk(a.deps.Backend, a.deps.Actor, a.deps.Logger)
	detail, err := desk.Lookup(ctx, *id, a.listPage)
	if err != nil {
		return a.fail("status", err)
	}
	current := detail.Proposal
	updated, err := desk.Transition(ctx, current, *target, *desc)
	if err != nil {
		return a.fail("status", err)
	}
	if *asJSON {
		return a.printJSON(updated)
	}
	_, _ = fmt.Fprintf(a.deps.Stdout, "Status alterado: %s → %s\n", statusText(current.Status), statusText(updated.Status))
	return ExitOK
}
