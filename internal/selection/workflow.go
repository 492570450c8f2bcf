package selection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/luccagoltzman/ia-b2b/internal/documents"
	"github.com/luccagoltzman/ia-b2b/internal/pricetables"
	"github.com/luccagoltzman/ia-b2b/internal/proposals"
)

var (
	ErrEmptySelection     = errors.New("selecione ao menos um produto antes de confirmar")
	ErrBusy               = errors.New("uma confirmação já está em andamento")
	ErrDocumentGeneration = errors.New("erro ao gerar a nota de retorno")
	ErrProposalCreation   = errors.New("nota de retorno gerada, mas a proposta não pôde ser criada")
)

// DefaultSettleDelay separates the PDF and XLSX writes.
const DefaultSettleDelay = 500 * time.Millisecond

// ProposalGenerator asks the backend to create the proposal. Only entry ids
// are sent; the backend prices them from its own copy of the table.
type ProposalGenerator interface {
	GenerateProposal(ctx context.Context, tableID string, in pricetables.GenerateProposalInput) (*proposals.Proposal, error)
}

// FileSaver stores a rendered document and returns its path.
type FileSaver interface {
	Save(name string, data []byte) (string, error)
}

// Result is the outcome of a confirmed selection. PDFPath and XLSXPath are
// set whenever documents were written, even if the proposal failed.
type Result struct {
	PDFPath  string
	XLSXPath string
	Total    decimal.Decimal
	Proposal *proposals.Proposal
}

// Workflow confirms selections one at a time.
type Workflow struct {
	documents   documents.Set
	files       FileSaver
	proposals   ProposalGenerator
	settleDelay time.Duration
	logger      *slog.Logger
	clock       func() time.Time
	sleep       func(context.Context, time.Duration) error

	busy sync.Mutex
}

// NewWorkflow constructs a Workflow. A negative settleDelay disables the
// pause between documents.
func NewWorkflow(docs documents.Set, files FileSaver, gen ProposalGenerator, settleDelay time.Duration, logger *slog.Logger) *Workflow {
	if logger == nil {
		logger = slog.Default()
	}
	if settleDelay == 0 {
		settleDelay = DefaultSettleDelay
	}
	return &Workflow{
		documents:   docs,
		files:       files,
		proposals:   gen,
		settleDelay: settleDelay,
		logger:      logger,
		clock:       time.Now,
		sleep:       sleepCtx,
	}
}

// Confirm writes the PDF and XLSX return notes for the selection and then
// creates the proposal. An empty selection fails before any collaborator is
// called. Document failures stop the flow; a proposal failure leaves the
// written files in place.
func (w *Workflow) Confirm(ctx context.Context, s *Session) (Result, error) {
	if s == nil || s.closed {
		return Result{}, ErrSessionClosed
	}
	if s.Len() == 0 {
		return Result{}, ErrEmptySelection
	}
	if !w.busy.TryLock() {
		return Result{}, ErrBusy
	}
	defer w.busy.Unlock()

	table := s.Table()
	doc := documents.ReturnNote(documents.ReturnNoteInput{
		TableID:   table.ID,
		TableName: table.Nome,
		Client:    s.Client(),
		Items:     s.documentItems(),
		At:        w.clock(),
	})
	res := Result{Total: doc.Total}

	var err error
	if res.PDFPath, err = w.write(ctx, doc, documents.FormatPDF); err != nil {
		return res, err
	}
	if w.settleDelay > 0 {
		if err := w.sleep(ctx, w.settleDelay); err != nil {
			return res, fmt.Errorf("%w: %v", ErrDocumentGeneration, err)
		}
	}
	if res.XLSXPath, err = w.write(ctx, doc, documents.FormatXLSX); err != nil {
		return res, err
	}

	sel := make([]pricetables.Selecao, 0, s.Len())
	for _, id := range s.SelectedIDs() {
		sel = append(sel, pricetables.Selecao{ProdutoID: id})
	}
	p, err := w.proposals.GenerateProposal(ctx, table.ID, pricetables.GenerateProposalInput{
		Cliente:        s.Client().DisplayName(),
		Selecoes:       sel,
		IdempotencyKey: s.IdempotencyKey(),
	})
	if err != nil {
		w.logger.Error("create proposal from selection",
			slog.String("table_id", table.ID),
			slog.String("client", s.Client().DisplayName()),
			slog.Any("error", err))
		return res, fmt.Errorf("%w: %w", ErrProposalCreation, err)
	}
	res.Proposal = p
	s.closed = true
	return res, nil
}

func (w *Workflow) write(ctx context.Context, doc documents.Document, format documents.Format) (string, error) {
	out, err := w.documents.Render(ctx, doc, format)
	if err != nil {
		w.logger.Error("render return note", slog.String("format", string(format)), slog.Any("error", err))
		return "", fmt.Errorf("%w: %w", ErrDocumentGeneration, err)
	}
	path, err := w.files.Save(out.Filename, out.Data)
	if err != nil {
		w.logger.Error("save return note", slog.String("file", out.Filename), slog.Any("error", err))
		return "", fmt.Errorf("%w: %w", ErrDocumentGeneration, err)
	}
	return path, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
