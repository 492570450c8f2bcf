package apiclient

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/luccagoltzman/ia-b2b/internal/platform/cache"
	"github.com/luccagoltzman/ia-b2b/internal/pricing"
	"github.com/luccagoltzman/ia-b2b/internal/shared"
)

// DefaultCategory groups benchmarks without a category.
const DefaultCategory = "Geral"

// Benchmark is a market reference value served by the backend.
type Benchmark struct {
	ID             string    `json:"id"`
	Categoria      *string   `json:"categoria"`
	TipoMetrica    string    `json:"tipoMetrica"`
	ValorBenchmark float64   `json:"valorBenchmark"`
	Unidade        *string   `json:"unidade"`
	Descricao      *string   `json:"descricao"`
	Fonte          *string   `json:"fonte"`
	Periodo        *string   `json:"periodo"`
	Ativo          bool      `json:"ativo"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Category is the benchmark category or DefaultCategory.
func (b Benchmark) Category() string {
	if b.Categoria == nil || *b.Categoria == "" {
		return DefaultCategory
	}
	return *b.Categoria
}

// FormattedValue renders the value with its unit: "12.50%", "R$ 1.234,50"
// or "3.00 dias".
func (b Benchmark) FormattedValue() string {
	unit := ""
	if b.Unidade != nil {
		unit = *b.Unidade
	}
	switch unit {
	case "percentual":
		return fmt.Sprintf("%.2f%%", b.ValorBenchmark)
	case "reais":
		return pricing.FormatBRL(decimal.NewFromFloat(b.ValorBenchmark))
	case "":
		return fmt.Sprintf("%.2f", b.ValorBenchmark)
	default:
		return fmt.Sprintf("%.2f %s", b.ValorBenchmark, unit)
	}
}

// MetricLabel turns "ticket_medio" into "Ticket Medio".
func (b Benchmark) MetricLabel() string {
	return shared.TitleFromCode(b.TipoMetrica)
}

// BenchmarkFilter narrows Benchmarks.
type BenchmarkFilter struct {
	Categoria   string
	TipoMetrica string
}

type benchmarkCache struct {
	store *cache.JSONCache
	group singleflight.Group
}

// WithBenchmarkCache caches benchmark listings. Concurrent misses for the
// same filter share one backend request.
func WithBenchmarkCache(store *cache.JSONCache) Option {
	return func(c *Client) { c.bench.store = store }
}

// Benchmarks lists the market benchmarks matching f.
func (c *Client) Benchmarks(ctx context.Context, f BenchmarkFilter) ([]Benchmark, error) {
	key, err := c.bench.store.Key(ctx, "list", f.Categoria, f.TipoMetrica)
	if err != nil {
		c.logger.Warn("benchmark cache unavailable", slog.Any("error", err))
		return c.fetchBenchmarks(ctx, f)
	}
	v, err, _ := c.bench.group.Do(key, func() (any, error) {
		var out []Benchmark
		err := c.bench.store.Fetch(ctx, key, &out, func(ctx context.Context) (any, error) {
			return c.fetchBenchmarks(ctx, f)
		})
		return out, err
	})
	if err != nil {
		return nil, err
	}
	return v.([]Benchmark), nil
}

func (c *Client) fetchBenchmarks(ctx context.Context, f BenchmarkFilter) ([]Benchmark, error) {
	q := url.Values{}
	if f.Categoria != "" {
		q.Set("categoria", f.Categoria)
	}
	if f.TipoMetrica != "" {
		q.Set("tipoMetrica", f.TipoMetrica)
	}
	out := []Benchmark{}
	err := c.do(ctx, call{method: http.MethodGet, route: "/benchmarks", path: "/benchmarks", query: q}, &out)
	return out, err
}

// Benchmark returns the first benchmark for metric in category, or nil.
func (c *Client) Benchmark(ctx context.Context, category, metric string) (*Benchmark, error) {
	list, err := c.Benchmarks(ctx, BenchmarkFilter{Categoria: category, TipoMetrica: metric})
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return &list[0], nil
}

// BenchmarkGroup is the benchmarks of one category.
type BenchmarkGroup struct {
	Categoria  string
	Benchmarks []Benchmark
}

// GroupByCategory groups benchmarks by Category, sorted by name. Order
// within a group is kept.
func GroupByCategory(list []Benchmark) []BenchmarkGroup {
	index := map[string]int{}
	var groups []BenchmarkGroup
	for _, b := range list {
		cat := b.Category()
		i, ok := index[cat]
		if !ok {
			i = len(groups)
			index[cat] = i
			groups = append(groups, BenchmarkGroup{Categoria: cat})
		}
		groups[i].Benchmarks = append(groups[i].Benchmarks, b)
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Categoria < groups[j].Categoria })
	return groups
}
