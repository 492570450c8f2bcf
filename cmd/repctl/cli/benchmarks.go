package cli

import (
	"context"
	"fmt"

	"github.com/luccagoltzman/ia-b2b/internal/apiclient"
)

func (a *App) benchmarksCommand(ctx context.Context, args []string) int {
	fs := a.flags("benchmarks")
	category := fs.String("categoria", "", "filtra por categoria")
	metric := fs.String("metrica", "", "filtra por tipo de métrica")
	asJSON := fs.Bool("json", false, "saída em JSON")
	if code, done := parse(fs, args); done {
		return code
	}

	list, err := a.deps.Backend.Benchmarks(ctx, apiclient.BenchmarkFilter{Categoria: *category, TipoMetrica: *metric})
	if err != nil {
		return a.fail("benchmarks", err)
	}
	groups := apiclient.GroupByCategory(list)
	if *asJSON {
		return a.printJSON(groups)
	}
	if len(groups) == 0 {
		_, _ = fmt.Fprintln(a.deps.Stdout, "Nenhum benchmark encontrado.")
		return ExitOK
	}
	for _, g := range groups {
		_, _ = fmt.Fprintf(a.deps.Stdout, "%s\n", g.Categoria)
		for _, b := range g.Benchmarks {
			line := fmt.Sprintf("  %-28s %s", b.MetricLabel(), b.FormattedValue())
			if b.Fonte != nil && *b.Fonte != "" {
				line += " (" + *b.Fonte + ")"
			}
			_, _ = fmt.Fprintln(a.deps.Stdout, line)
		}
	}
	return ExitOK
}
