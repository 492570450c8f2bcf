package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/luccagoltzman/ia-b2b/internal/documents"
	"github.com/luccagoltzman/ia-b2b/internal/pricetables"
	"github.com/luccagoltzman/ia-b2b/internal/pricing"
	"github.com/luccagoltzman/ia-b2b/internal/selection"
)

type tableSummary struct {
	ID       string   `json:"id"`
	Nome     string   `json:"nome"`
	Status   string   `json:"status"`
	Clientes []string `json:"clientes"`
	Produtos int      `json:"produtos"`
}

func (a *App) tablesCommand(ctx context.Context, args []string) int {
	fs := a.flags("tabelas")
	asJSON := fs.Bool("json", false, "saída em JSON")
	if code, done := parse(fs, args); done {
		return code
	}

	all, err := a.deps.Backend.ListTables(ctx, nil)
	if err != nil {
		return a.fail("tabelas", err)
	}
	eligible := selection.EligibleTables(all)
	out := make([]tableSummary, 0, len(eligible))
	for _, t := range eligible {
		out = append(out, tableSummary{
			ID:       t.ID,
			Nome:     t.Nome,
			Status:   string(t.Status),
			Clientes: t.ClientNames(),
			Produtos: len(t.Produtos),
		})
	}
	if *asJSON {
		return a.printJSON(out)
	}
	if len(out) == 0 {
		_, _ = fmt.Fprintln(a.deps.Stdout, "Nenhuma tabela aguardando retorno.")
		return ExitOK
	}
	w := tabwriter.NewWriter(a.deps.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNOME\tSTATUS\tCLIENTES\tPRODUTOS")
	for _, t := range eligible {
		info, _ := t.Status.Info()
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n", t.ID, t.Nome, info.Label, len(t.Clientes), len(t.Produtos))
	}
	_ = w.Flush()
	return ExitOK
}

type returnResult struct {
	PDF      string `json:"pdf"`
	XLSX     string `json:"xlsx"`
	Total    string `json:"total"`
	Proposta string `json:"proposta,omitempty"`
}

func (a *App) returnCommand(ctx context.Context, args []string) int {
	fs := a.flags("retorno")
	tableID := fs.String("tabela", "", "id da tabela (obrigatório)")
	client := fs.String("cliente", "", "cliente que respondeu; obrigatório quando a tabela tem vários")
	entries := fs.String("produtos", "", "ids dos produtos escolhidos, separados por vírgula")
	outDir := fs.String("saida", a.deps.OutDir, "diretório das notas de retorno")
	asJSON := fs.Bool("json", false, "saída em JSON")
	if code, done := parse(fs, args); done {
		return code
	}
	if *tableID == "" {
		a.errorf("retorno: --tabela é obrigatório")
		return ExitUsage
	}

	table, err := a.deps.Backend.GetTable(ctx, *tableID)
	if err != nil {
		return a.fail("retorno", err)
	}
	session, err := selection.Start(*table, *client)
	if err != nil {
		if errors.Is(err, selection.ErrClientChoiceRequired) {
			a.errorf("retorno: informe --cliente, um de: %v", table.ClientNames())
			return ExitUsage
		}
		return a.fail("retorno", err)
	}
	for _, id := range splitList(*entries) {
		if _, err := session.Toggle(id); err != nil {
			session.Cancel()
			return a.fail("retorno", err)
		}
	}
	if session.Len() == 0 {
		a.printEntries(*table)
	}

	store, err := documents.NewFileStore(*outDir)
	if err != nil {
		return a.fail("retorno", err)
	}
	wf := selection.NewWorkflow(a.deps.Documents, store, a.deps.Backend, a.deps.SettleDelay, a.deps.Logger)
	res, err := wf.Confirm(ctx, session)
	out := returnResult{PDF: res.PDFPath, XLSX: res.XLSXPath, Total: pricing.FormatBRL(res.Total)}
	if err != nil {
		if errors.Is(err, selection.ErrProposalCreation) {
			a.errorf("retorno: arquivos gerados em %s e %s", res.PDFPath, res.XLSXPath)
		}
		return a.fail("retorno", err)
	}
	if res.Proposal != nil {
		out.Proposta = res.Proposal.ID
	}
	if *asJSON {
		return a.printJSON(out)
	}
	_, _ = fmt.Fprintf(a.deps.Stdout, "Nota de retorno: %s\n", out.PDF)
	_, _ = fmt.Fprintf(a.deps.Stdout, "Planilha: %s\n", out.XLSX)
	_, _ = fmt.Fprintf(a.deps.Stdout, "Total: %s\n", out.Total)
	_, _ = fmt.Fprintf(a.deps.Stdout, "Proposta criada: %s\n", out.Proposta)
	return ExitOK
}

// printEntries lists what can be passed to --produtos.
func (a *App) printEntries(t pricetables.PriceTable) {
	w := tabwriter.NewWriter(a.deps.Stderr, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tPRODUTO\tMARCA\tQTD\tVALOR")
	for _, e := range t.Produtos {
		line := e.PricingLine()
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s %s\t%s\n", e.ID, e.Produto, e.Marca,
			pricing.FormatQuantity(line.Quantity), e.UnidadeMedida, pricing.FormatBRL(pricing.LineTotal(line)))
	}
	_ = w.Flush()
}
