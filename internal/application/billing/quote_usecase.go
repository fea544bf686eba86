package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Ventas-api/internal/application/dto"
	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/money"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

// QuoteUseCase cotizaciones: mismas reglas de cálculo que la factura, sin stock ni NCF.
type QuoteUseCase struct {
	uow    repository.UnitOfWork
	reader repository.Repos
	cfg    Config
	log    *logger.Logger
	now    func() time.Time
}

// NewQuoteUseCase construye el caso de uso de cotizaciones.
func NewQuoteUseCase(uow repository.UnitOfWork, reader repository.Repos, cfg Config, log *logger.Logger) *QuoteUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &QuoteUseCase{uow: uow, reader: reader, cfg: cfg.withDefaults(), log: log, now: time.Now}
}

// WithClock reemplaza el reloj (pruebas de vencimiento).
func (uc *QuoteUseCase) WithClock(now func() time.Time) *QuoteUseCase {
	uc.now = now
	return uc
}

type quoteTerms struct {
	client     *entity.Client
	currency   string
	items      []entity.LineItem
	validUntil time.Time
	totals     money.Totals
}

func (uc *QuoteUseCase) resolve(ctx context.Context, companyID string, in dto.CreateQuoteRequest) (*quoteTerms, error) {
	currency := in.Currency
	if currency == "" {
		currency = uc.cfg.DefaultCurrency
	}
	currency, err := money.ValidateCurrency(currency)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err.Error())
	}
	if in.ValidUntil == "" {
		return nil, fmt.Errorf("%w: valid_until requerido", domain.ErrInvalidInput)
	}
	validUntil, err := parseDate(in.ValidUntil, "valid_until", time.Time{})
	if err != nil {
		return nil, err
	}
	client, err := resolveClient(ctx, uc.reader, companyID, in.ClientID)
	if err != nil {
		return nil, err
	}
	items, err := resolveLines(ctx, uc.reader, companyID, currency, in.Items)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].ID = uuid.New().String()
	}
	return &quoteTerms{
		client:     client,
		currency:   currency,
		items:      items,
		validUntil: validUntil,
		totals:     money.Calculate(moneyLines(items), in.IncludeITBIS, *uc.cfg.TaxRate),
	}, nil
}

// CreateQuote crea una cotización en borrador con número COT-XXXXXX.
func (uc *QuoteUseCase) CreateQuote(ctx context.Context, companyID, userID string, in dto.CreateQuoteRequest) (*dto.QuoteResponse, error) {
	ctx, span := tracer.Start(ctx, "billing.CreateQuote")
	defer span.End()

	terms, err := uc.resolve(ctx, companyID, in)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	q := &entity.Quote{
		ID:            uuid.New().String(),
		CompanyID:     companyID,
		UserID:        userID,
		ClientID:      terms.client.ID,
		Client:        terms.client.Snapshot(),
		Currency:      terms.currency,
		IncludeITBIS:  in.IncludeITBIS,
		Items:         terms.items,
		Subtotal:      terms.totals.Subtotal,
		DiscountTotal: terms.totals.DiscountTotal,
		ITBIS:         terms.totals.ITBIS,
		Total:         terms.totals.Total,
		Status:        entity.QuoteStatusDraft,
		ValidUntil:    terms.validUntil,
		Notes:         in.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err = uc.uow.Run(ctx, func(ctx context.Context, tx repository.Repos) error {
		n, err := tx.Counters.Next(ctx, companyID, repository.CounterQuote)
		if err != nil {
			return err
		}
		q.QuoteNumber = fmt.Sprintf("COT-%06d", n)
		return tx.Quotes.Create(ctx, q)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	uc.log.Info().Str("company_id", companyID).Str("quote_id", q.ID).Str("quote_number", q.QuoteNumber).Msg("cotización creada")
	return toQuoteResponse(q, uc.now()), nil
}

// UpdateQuote reemplaza líneas y términos. Una cotización facturada es inmutable.
func (uc *QuoteUseCase) UpdateQuote(ctx context.Context, companyID, userID, quoteID string, in dto.CreateQuoteRequest) (*dto.QuoteResponse, error) {
	ctx, span := tracer.Start(ctx, "billing.UpdateQuote")
	defer span.End()

	terms, err := uc.resolve(ctx, companyID, in)
	if err != nil {
		return nil, err
	}
	var out *entity.Quote
	err = uc.uow.Run(ctx, func(ctx context.Context, tx repository.Repos) error {
		q, err := uc.lockOwned(ctx, tx, companyID, userID, quoteID)
		if err != nil {
			return err
		}
		if q.IsInvoiced() {
			return fmt.Errorf("%w: la cotización ya fue facturada", domain.ErrFailedPrecondition)
		}
		q.ClientID = terms.client.ID
		q.Client = terms.client.Snapshot()
		q.Currency = terms.currency
		q.IncludeITBIS = in.IncludeITBIS
		q.Items = terms.items
		q.Subtotal = terms.totals.Subtotal
		q.DiscountTotal = terms.totals.DiscountTotal
		q.ITBIS = terms.totals.ITBIS
		q.Total = terms.totals.Total
		q.ValidUntil = terms.validUntil
		q.Notes = in.Notes
		q.UpdatedAt = uc.now()
		out = q
		return tx.Quotes.Update(ctx, q)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return toQuoteResponse(out, uc.now()), nil
}

// ChangeStatus aplica una transición manual. facturada solo se alcanza por conversión.
func (uc *QuoteUseCase) ChangeStatus(ctx context.Context, companyID, userID, quoteID, status string) (*dto.QuoteResponse, error) {
	var out *entity.Quote
	err := uc.uow.Run(ctx, func(ctx context.Context, tx repository.Repos) error {
		q, err := uc.lockOwned(ctx, tx, companyID, userID, quoteID)
		if err != nil {
			return err
		}
		if q.Status == status {
			out = q
			return nil
		}
		if !q.CanTransition(status) {
			return fmt.Errorf("%w: transición %s → %s no permitida", domain.ErrFailedPrecondition, q.Status, status)
		}
		q.Status = status
		q.UpdatedAt = uc.now()
		out = q
		return tx.Quotes.Update(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	return toQuoteResponse(out, uc.now()), nil
}

func (uc *QuoteUseCase) lockOwned(ctx context.Context, tx repository.Repos, companyID, userID, quoteID string) (*entity.Quote, error) {
	q, err := tx.Quotes.GetForUpdate(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, domain.ErrNotFound
	}
	if q.CompanyID != companyID || q.UserID != userID {
		return nil, fmt.Errorf("%w: solo el autor puede modificar la cotización", domain.ErrForbidden)
	}
	return q, nil
}

// GetQuote obtiene una cotización de la empresa.
func (uc *QuoteUseCase) GetQuote(ctx context.Context, companyID, id string) (*dto.QuoteResponse, error) {
	q, err := uc.reader.Quotes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, domain.ErrNotFound
	}
	if q.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return toQuoteResponse(q, uc.now()), nil
}

// ListQuotes lista cotizaciones de la empresa.
func (uc *QuoteUseCase) ListQuotes(ctx context.Context, companyID string, p dto.PageRequest) (*dto.QuoteListResponse, error) {
	p.DefaultPage()
	list, err := uc.reader.Quotes.ListByCompany(ctx, companyID, p.Limit, p.Offset)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	resp := &dto.QuoteListResponse{
		Items: make([]dto.QuoteResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: p.Limit, Offset: p.Offset},
	}
	for _, q := range list {
		resp.Items = append(resp.Items, *toQuoteResponse(q, now))
	}
	return resp, nil
}
