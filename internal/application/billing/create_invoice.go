package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jhoicas/Ventas-api/internal/application/dto"
	"github.com/jhoicas/Ventas-api/internal/application/events"
	"github.com/jhoicas/Ventas-api/internal/application/inventory"
	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/money"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

var tracer = otel.Tracer("github.com/jhoicas/Ventas-api/internal/application/billing")

// InvoiceUseCase ciclo de vida de la factura: crear, eliminar, convertir cotización y consultar.
// Cada operación que cruza inventario, NCF y factura corre en una sola unidad de trabajo.
type InvoiceUseCase struct {
	uow       repository.UnitOfWork
	reader    repository.Repos
	stock     StockLedger
	allocator SequenceAllocator
	cfg       Config
	log       *logger.Logger
	now       func() time.Time
}

// NewInvoiceUseCase construye el caso de uso. reader son repos fuera de transacción (validaciones y lecturas).
func NewInvoiceUseCase(
	uow repository.UnitOfWork,
	reader repository.Repos,
	stock StockLedger,
	allocator SequenceAllocator,
	cfg Config,
	log *logger.Logger,
) *InvoiceUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &InvoiceUseCase{
		uow:       uow,
		reader:    reader,
		stock:     stock,
		allocator: allocator,
		cfg:       cfg.withDefaults(),
		log:       log,
		now:       time.Now,
	}
}

// WithClock reemplaza el reloj (pruebas de vencimiento).
func (uc *InvoiceUseCase) WithClock(now func() time.Time) *InvoiceUseCase {
	uc.now = now
	return uc
}

// invoiceDraft datos ya validados con los que se crea una factura dentro de la tx.
type invoiceDraft struct {
	companyID    string
	userID       string
	clientID     string
	client       entity.ClientSnapshot
	currency     string
	includeITBIS bool
	items        []entity.LineItem
	issueDate    time.Time
	dueDate      time.Time
	ncfType      string
	quoteID      string
}

// CreateInvoice valida fuera de la tx y luego, en una sola transacción: consecutivo, reserva de stock
// por línea, NCF (si aplica), persistencia y evento. Cualquier fallo deshace todo.
func (uc *InvoiceUseCase) CreateInvoice(ctx context.Context, companyID, userID string, in dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	ctx, span := tracer.Start(ctx, "billing.CreateInvoice")
	defer span.End()

	currency := in.Currency
	if currency == "" {
		currency = uc.cfg.DefaultCurrency
	}
	currency, err := money.ValidateCurrency(currency)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err.Error())
	}
	now := uc.now()
	issueDate, err := parseDate(in.IssueDate, "issue_date", now)
	if err != nil {
		return nil, err
	}
	if in.DueDate == "" {
		return nil, fmt.Errorf("%w: due_date requerido", domain.ErrInvalidInput)
	}
	dueDate, err := parseDate(in.DueDate, "due_date", now)
	if err != nil {
		return nil, err
	}
	if dueDate.Before(truncateDay(issueDate)) {
		return nil, fmt.Errorf("%w: due_date anterior a issue_date", domain.ErrInvalidInput)
	}

	client, err := resolveClient(ctx, uc.reader, companyID, in.ClientID)
	if err != nil {
		return nil, err
	}
	items, err := resolveLines(ctx, uc.reader, companyID, currency, in.Items)
	if err != nil {
		return nil, err
	}

	draft := invoiceDraft{
		companyID:    companyID,
		userID:       userID,
		clientID:     client.ID,
		client:       client.Snapshot(),
		currency:     currency,
		includeITBIS: in.IncludeITBIS,
		items:        items,
		issueDate:    issueDate,
		dueDate:      dueDate,
		ncfType:      uc.ncfTypeFor(in.NCFType),
	}
	if draft.ncfType != "" {
		release := uc.allocator.Lock(ctx, companyID, draft.ncfType)
		defer release()
	}

	var inv *entity.Invoice
	err = uc.uow.Run(ctx, func(ctx context.Context, tx repository.Repos) error {
		var err error
		inv, err = uc.createInTx(ctx, tx, draft)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("invoice.id", inv.ID), attribute.String("invoice.number", inv.InvoiceNumber))

	uc.log.Ctx(ctx).Info().
		Str("company_id", companyID).
		Str("invoice_id", inv.ID).
		Str("invoice_number", inv.InvoiceNumber).
		Str("ncf", inv.NCFNumber).
		Str("total", inv.Total.StringFixed(2)).
		Msg("factura creada")

	return toInvoiceResponse(inv, uc.now()), nil
}

// createInTx es el paso compartido por CreateInvoice y ConvertQuoteToInvoice.
// Las líneas de un mismo producto ven el stock ya descontado por las anteriores (misma tx).
func (uc *InvoiceUseCase) createInTx(ctx context.Context, tx repository.Repos, d invoiceDraft) (*entity.Invoice, error) {
	invoiceID := uuid.New().String()
	now := uc.now()

	n, err := tx.Counters.Next(ctx, d.companyID, repository.CounterInvoice)
	if err != nil {
		return nil, err
	}

	items := append([]entity.LineItem(nil), d.items...)
	for i := range items {
		items[i].ID = uuid.New().String()
		if !items[i].IsGood() {
			continue
		}
		res, err := uc.stock.Reserve(ctx, tx, inventory.ReserveInput{
			CompanyID:     d.companyID,
			TransactionID: invoiceID,
			ProductID:     items[i].ProductID,
			UserID:        d.userID,
			Quantity:      items[i].Quantity,
		})
		if err != nil {
			return nil, err
		}
		items[i].UnitCost = res.UnitCost
	}

	totals := money.Calculate(moneyLines(items), d.includeITBIS, *uc.cfg.TaxRate)

	inv := &entity.Invoice{
		ID:            invoiceID,
		CompanyID:     d.companyID,
		UserID:        d.userID,
		ClientID:      d.clientID,
		Client:        d.client,
		InvoiceNumber: fmt.Sprintf("FAC-%06d", n),
		Currency:      d.currency,
		IncludeITBIS:  d.includeITBIS,
		Items:         items,
		Subtotal:      totals.Subtotal,
		DiscountTotal: totals.DiscountTotal,
		ITBIS:         totals.ITBIS,
		Total:         totals.Total,
		BalanceDue:    totals.Total,
		QuoteID:       d.quoteID,
		IssueDate:     d.issueDate,
		DueDate:       d.dueDate,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	inv.Status = entity.DeriveInvoiceStatus(inv.Total, inv.BalanceDue)

	if d.ncfType != "" {
		alloc, err := uc.allocator.AllocateNext(ctx, tx, d.companyID, d.ncfType)
		if err != nil {
			return nil, err
		}
		inv.NCFType = alloc.TypeCode
		inv.NCFNumber = alloc.NCF
	}

	if err := tx.Invoices.Create(ctx, inv); err != nil {
		return nil, err
	}
	if err := events.Enqueue(ctx, tx, d.companyID, inv.ID, events.InvoiceCreated, events.NewInvoicePayload(inv, now)); err != nil {
		return nil, err
	}
	return inv, nil
}

func (uc *InvoiceUseCase) ncfTypeFor(requested string) string {
	if requested != "" {
		return requested
	}
	if uc.cfg.FiscalNumbering {
		return uc.cfg.DefaultNCFType
	}
	return ""
}

// GetInvoice obtiene una factura con líneas y pagos; el estado vencida se calcula aquí.
func (uc *InvoiceUseCase) GetInvoice(ctx context.Context, companyID, id string) (*dto.InvoiceResponse, error) {
	inv, err := uc.reader.Invoices.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	if inv.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return toInvoiceResponse(inv, uc.now()), nil
}

// ListInvoices lista facturas de la empresa, opcionalmente por estado visible.
func (uc *InvoiceUseCase) ListInvoices(ctx context.Context, companyID string, q dto.InvoiceListQuery) (*dto.InvoiceListResponse, error) {
	q.DefaultPage()
	now := uc.now()

	filter := repository.InvoiceFilter{Status: q.Status, Limit: q.Limit, Offset: q.Offset}
	overdueOnly := q.Status == entity.InvoiceStatusOverdue
	pendingOnly := q.Status == entity.InvoiceStatusPending
	if overdueOnly || pendingOnly {
		// vencida es un pendiente visto después de su fecha: se filtra en memoria
		filter = repository.InvoiceFilter{Status: entity.InvoiceStatusPending}
	}
	list, err := uc.reader.Invoices.ListByCompany(ctx, companyID, filter)
	if err != nil {
		return nil, err
	}

	resp := &dto.InvoiceListResponse{Items: make([]dto.InvoiceResponse, 0, len(list))}
	for _, inv := range list {
		if (overdueOnly || pendingOnly) && inv.DisplayStatus(now) != q.Status {
			continue
		}
		resp.Items = append(resp.Items, *toInvoiceResponse(inv, now))
	}
	if overdueOnly || pendingOnly {
		resp.Page.Total = len(resp.Items)
		resp.Items = page(resp.Items, q.Limit, q.Offset)
	}
	resp.Page.Limit = q.Limit
	resp.Page.Offset = q.Offset
	return resp, nil
}

func page[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return []T{}
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
