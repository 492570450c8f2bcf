// Package cli implements the repctl subcommands. Every command takes its
// writers explicitly and returns a process exit code.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/luccagoltzman/ia-b2b/internal/apiclient"
	"github.com/luccagoltzman/ia-b2b/internal/documents"
	"github.com/luccagoltzman/ia-b2b/internal/pricetables"
	"github.com/luccagoltzman/ia-b2b/internal/proposals"
)

// Exit codes.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// Backend is the remote API surface used by the commands.
type Backend interface {
	ListTables(ctx context.Context, status *pricetables.Status) ([]pricetables.PriceTable, error)
	GetTable(ctx context.Context, id string) (*pricetables.PriceTable, error)
	GenerateProposal(ctx context.Context, tableID string, in pricetables.GenerateProposalInput) (*proposals.Proposal, error)
	ListProposals(ctx context.Context, f apiclient.ProposalFilter) ([]proposals.Proposal, error)
	GetProposal(ctx context.Context, id string) (*proposals.Proposal, error)
	TransitionProposal(ctx context.Context, id string, in proposals.TransitionInput) (*proposals.Proposal, error)
	Benchmarks(ctx context.Context, f apiclient.BenchmarkFilter) ([]apiclient.Benchmark, error)
}

// Deps are the collaborators shared by all commands. Queue may be nil, in
// which case the queue commands fail.
type Deps struct {
	Backend     Backend
	Documents   documents.Set
	Queue       Queue
	Actor       string
	OutDir      string
	SettleDelay time.Duration
	Logger      *slog.Logger
	Stdout      io.Writer
	Stderr      io.Writer
}

// App dispatches subcommands.
type App struct {
	deps Deps
}

// New builds the command dispatcher.
func New(deps Deps) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(deps.Stderr, nil))
	}
	return &App{deps: deps}
}

type command struct {
	summary string
	run     func(ctx context.Context, args []string) int
}

func (a *App) commands() map[string]command {
	return map[string]command{
		"tabelas":    {"lista as tabelas aguardando retorno", a.tablesCommand},
		"retorno":    {"registra o retorno do cliente e gera a proposta", a.returnCommand},
		"propostas":  {"lista propostas", a.proposalsCommand},
		"proposta":   {"mostra a proposta e o histórico de status", a.proposalCommand},
		"status":     {"altera o status de uma proposta", a.statusCommand},
		"benchmarks": {"lista benchmarks de mercado por categoria", a.benchmarksCommand},
		"fila":       {"mostra o estado da fila de envio", a.queueCommand},
		"reenviar":   {"reenfileira o envio de uma tabela", a.resendCommand},
	}
}

// Run executes args[0] with the remaining arguments.
func (a *App) Run(ctx context.Context, args []string) int {
	cmds := a.commands()
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "ajuda" {
		a.usage(cmds)
		if len(args) == 0 {
			return ExitUsage
		}
		return ExitOK
	}
	cmd, ok := cmds[args[0]]
	if !ok {
		a.errorf("comando desconhecido: %s", args[0])
		a.usage(cmds)
		return ExitUsage
	}
	return cmd.run(ctx, args[1:])
}

func (a *App) usage(cmds map[string]command) {
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	_, _ = fmt.Fprintln(a.deps.Stderr, "uso: repctl <comando> [opções]")
	for _, name := range names {
		_, _ = fmt.Fprintf(a.deps.Stderr, "  %-11s %s\n", name, cmds[name].summary)
	}
}

func (a *App) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.deps.Stderr)
	return fs
}

// parse returns ExitOK when parsing succeeded, ExitOK with done=true after
// -h, and ExitUsage on bad flags.
func parse(fs *flag.FlagSet, args []string) (code int, done bool) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitOK, true
		}
		return ExitUsage, true
	}
	return ExitOK, false
}

func (a *App) errorf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.deps.Stderr, "repctl: "+format+"\n", args...)
}

// fail prints err the way the UI shows it: the message only.
func (a *App) fail(cmd string, err error) int {
	a.errorf("%s: %s", cmd, err.Error())
	return ExitError
}

func (a *App) printJSON(v any) int {
	enc := json.NewEncoder(a.deps.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return a.fail("json", err)
	}
	return ExitOK
}

// splitList parses "a,b, c" into its non-empty trimmed parts.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
