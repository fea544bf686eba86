package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

// ── productos ────────────────────────────────────────────────────────────────

type productRepo struct{ base }

func (r *productRepo) Create(_ context.Context, p *entity.Product) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	for i := range p.Batches {
		if p.Batches[i].ID == "" {
			p.Batches[i].ID = uuid.New().String()
		}
		p.Batches[i].ProductID = p.ID
		if p.Batches[i].Position == 0 {
			p.Batches[i].Position = i + 1
		}
	}
	return r.with(func(st *state) error {
		if _, ok := st.products[p.ID]; ok {
			return fmt.Errorf("producto %s: %w", p.ID, domain.ErrDuplicate)
		}
		for _, other := range st.products {
			if other.CompanyID == p.CompanyID && other.Code != "" && other.Code == p.Code {
				return fmt.Errorf("código %s: %w", p.Code, domain.ErrDuplicate)
			}
		}
		st.products[p.ID] = copyProduct(*p)
		return nil
	})
}

func (r *productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	err := r.with(func(st *state) error {
		if p, ok := st.products[id]; ok {
			cp := copyProduct(p)
			sort.SliceStable(cp.Batches, func(i, j int) bool { return cp.Batches[i].Position < cp.Batches[j].Position })
			out = &cp
		}
		return nil
	})
	return out, err
}

func (r *productRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

func (r *productRepo) UpdateBatchStock(_ context.Context, batchID string, stock int64) error {
	return r.with(func(st *state) error {
		for id, p := range st.products {
			for i := range p.Batches {
				if p.Batches[i].ID == batchID {
					p.Batches[i].Stock = stock
					p.UpdatedAt = time.Now()
					st.products[id] = p
					return nil
				}
			}
		}
		return fmt.Errorf("lote %s: %w", batchID, domain.ErrNotFound)
	})
}

// DeleteBatch elimina un lote (usado en pruebas de reversa con lotes eliminados).
func (s *Store) DeleteBatch(batchID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.st.products {
		kept := p.Batches[:0]
		for _, b := range p.Batches {
			if b.ID != batchID {
				kept = append(kept, b)
			}
		}
		p.Batches = kept
		s.st.products[id] = p
	}
}

// DeleteProduct elimina un producto del catálogo.
func (s *Store) DeleteProduct(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.st.products, id)
}

// ── clientes ─────────────────────────────────────────────────────────────────

type clientRepo struct{ base }

func (r *clientRepo) Create(_ context.Context, c *entity.Client) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return r.with(func(st *state) error {
		st.clients[c.ID] = *c
		return nil
	})
}

func (r *clientRepo) GetByID(_ context.Context, id string) (*entity.Client, error) {
	var out *entity.Client
	err := r.with(func(st *state) error {
		if c, ok := st.clients[id]; ok {
			out = &c
		}
		return nil
	})
	return out, err
}

// ── movimientos ──────────────────────────────────────────────────────────────

type movementRepo struct{ base }

func (r *movementRepo) Create(_ context.Context, m *entity.InventoryMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	return r.with(func(st *state) error {
		st.movements = append(st.movements, *m)
		return nil
	})
}

func (r *movementRepo) ListByTransaction(_ context.Context, transactionID, productID string) ([]*entity.InventoryMovement, error) {
	var out []*entity.InventoryMovement
	err := r.with(func(st *state) error {
		for _, m := range st.movements {
			if m.TransactionID == transactionID && m.ProductID == productID {
				m := m
				out = append(out, &m)
			}
		}
		return nil
	})
	return out, err
}

// ── facturas ─────────────────────────────────────────────────────────────────

type invoiceRepo struct{ base }

func (r *invoiceRepo) Create(_ context.Context, inv *entity.Invoice) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	return r.with(func(st *state) error {
		if _, ok := st.invoices[inv.ID]; ok {
			return fmt.Errorf("factura %s: %w", inv.ID, domain.ErrDuplicate)
		}
		for _, other := range st.invoices {
			if other.CompanyID == inv.CompanyID && other.InvoiceNumber == inv.InvoiceNumber {
				return fmt.Errorf("número %s: %w", inv.InvoiceNumber, domain.ErrDuplicate)
			}
		}
		st.invoices[inv.ID] = copyInvoice(*inv)
		return nil
	})
}

func (r *invoiceRepo) GetByID(_ context.Context, id string) (*entity.Invoice, error) {
	var out *entity.Invoice
	err := r.with(func(st *state) error {
		if inv, ok := st.invoices[id]; ok {
			cp := copyInvoice(inv)
			out = &cp
		}
		return nil
	})
	return out, err
}

func (r *invoiceRepo) GetForUpdate(ctx context.Context, id string) (*entity.Invoice, error) {
	return r.GetByID(ctx, id)
}

func (r *invoiceRepo) UpdateBalance(_ context.Context, inv *entity.Invoice) error {
	return r.with(func(st *state) error {
		cur, ok := st.invoices[inv.ID]
		if !ok {
			return fmt.Errorf("factura %s: %w", inv.ID, domain.ErrNotFound)
		}
		cur.BalanceDue = inv.BalanceDue
		cur.Status = inv.Status
		cur.UpdatedAt = inv.UpdatedAt
		st.invoices[inv.ID] = cur
		return nil
	})
}

func (r *invoiceRepo) CreatePayment(_ context.Context, p *entity.Payment) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return r.with(func(st *state) error {
		cur, ok := st.invoices[p.InvoiceID]
		if !ok {
			return fmt.Errorf("factura %s: %w", p.InvoiceID, domain.ErrNotFound)
		}
		// el recibo es único dentro de su factura, igual que en PostgreSQL
		for _, other := range cur.Payments {
			if other.ReceiptNumber == p.ReceiptNumber {
				return fmt.Errorf("recibo %s: %w", p.ReceiptNumber, domain.ErrDuplicate)
			}
		}
		cur.Payments = append(cur.Payments, *p)
		st.invoices[p.InvoiceID] = cur
		return nil
	})
}

func (r *invoiceRepo) Delete(_ context.Context, id string) error {
	return r.with(func(st *state) error {
		if _, ok := st.invoices[id]; !ok {
			return fmt.Errorf("factura %s: %w", id, domain.ErrNotFound)
		}
		delete(st.invoices, id)
		return nil
	})
}

func (r *invoiceRepo) ListByCompany(_ context.Context, companyID string, f repository.InvoiceFilter) ([]*entity.Invoice, error) {
	var out []*entity.Invoice
	err := r.with(func(st *state) error {
		for _, inv := range st.invoices {
			if inv.CompanyID != companyID || (f.Status != "" && inv.Status != f.Status) {
				continue
			}
			cp := copyInvoice(inv)
			out = append(out, &cp)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].InvoiceNumber > out[j].InvoiceNumber
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return paginate(out, f.Limit, f.Offset), err
}

// ── cotizaciones ─────────────────────────────────────────────────────────────

type quoteRepo struct{ base }

func (r *quoteRepo) Create(_ context.Context, q *entity.Quote) error {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	return r.with(func(st *state) error {
		if _, ok := st.quotes[q.ID]; ok {
			return fmt.Errorf("cotización %s: %w", q.ID, domain.ErrDuplicate)
		}
		st.quotes[q.ID] = copyQuote(*q)
		return nil
	})
}

func (r *quoteRepo) GetByID(_ context.Context, id string) (*entity.Quote, error) {
	var out *entity.Quote
	err := r.with(func(st *state) error {
		if q, ok := st.quotes[id]; ok {
			cp := copyQuote(q)
			out = &cp
		}
		return nil
	})
	return out, err
}

func (r *quoteRepo) GetForUpdate(ctx context.Context, id string) (*entity.Quote, error) {
	return r.GetByID(ctx, id)
}

func (r *quoteRepo) Update(_ context.Context, q *entity.Quote) error {
	return r.with(func(st *state) error {
		if _, ok := st.quotes[q.ID]; !ok {
			return fmt.Errorf("cotización %s: %w", q.ID, domain.ErrNotFound)
		}
		st.quotes[q.ID] = copyQuote(*q)
		return nil
	})
}

func (r *quoteRepo) ListByCompany(_ context.Context, companyID string, limit, offset int) ([]*entity.Quote, error) {
	var out []*entity.Quote
	err := r.with(func(st *state) error {
		for _, q := range st.quotes {
			if q.CompanyID == companyID {
				cp := copyQuote(q)
				out = append(out, &cp)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].QuoteNumber > out[j].QuoteNumber
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return paginate(out, limit, offset), err
}

// ── secuencias NCF ───────────────────────────────────────────────────────────

type sequenceRepo struct{ base }

func (r *sequenceRepo) Create(_ context.Context, seq *entity.NCFSequence) error {
	if seq.ID == "" {
		seq.ID = uuid.New().String()
	}
	return r.with(func(st *state) error {
		if seq.IsActive && activeSequence(st, seq.CompanyID, seq.TypeCode) != nil {
			return fmt.Errorf("ya existe una secuencia activa %s: %w", seq.TypeCode, domain.ErrDuplicate)
		}
		st.sequences[seq.ID] = *seq
		return nil
	})
}

func (r *sequenceRepo) GetByID(_ context.Context, id string) (*entity.NCFSequence, error) {
	var out *entity.NCFSequence
	err := r.with(func(st *state) error {
		if seq, ok := st.sequences[id]; ok {
			out = &seq
		}
		return nil
	})
	return out, err
}

func (r *sequenceRepo) GetActive(_ context.Context, companyID, typeCode string) (*entity.NCFSequence, error) {
	var out *entity.NCFSequence
	err := r.with(func(st *state) error {
		out = activeSequence(st, companyID, typeCode)
		return nil
	})
	return out, err
}

func (r *sequenceRepo) ListByCompany(_ context.Context, companyID string) ([]*entity.NCFSequence, error) {
	var out []*entity.NCFSequence
	err := r.with(func(st *state) error {
		for _, seq := range st.sequences {
			if seq.CompanyID == companyID {
				seq := seq
				out = append(out, &seq)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].TypeCode == out[j].TypeCode {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].TypeCode < out[j].TypeCode
	})
	return out, err
}

func (r *sequenceRepo) CompareAndAdvance(_ context.Context, id string, expectedVersion int64) (bool, error) {
	var ok bool
	err := r.with(func(st *state) error {
		seq, found := st.sequences[id]
		if !found || seq.Version != expectedVersion || seq.IsExhausted() {
			return nil
		}
		seq.CurrentNumber++
		seq.Version++
		seq.UpdatedAt = time.Now()
		st.sequences[id] = seq
		ok = true
		return nil
	})
	return ok, err
}

func (r *sequenceRepo) SetActive(_ context.Context, id string, active bool) error {
	return r.with(func(st *state) error {
		seq, ok := st.sequences[id]
		if !ok {
			return fmt.Errorf("secuencia %s: %w", id, domain.ErrNotFound)
		}
		if active {
			if cur := activeSequence(st, seq.CompanyID, seq.TypeCode); cur != nil && cur.ID != id {
				return fmt.Errorf("ya existe una secuencia activa %s: %w", seq.TypeCode, domain.ErrDuplicate)
			}
		}
		seq.IsActive = active
		seq.Version++
		seq.UpdatedAt = time.Now()
		st.sequences[id] = seq
		return nil
	})
}

func activeSequence(st *state, companyID, typeCode string) *entity.NCFSequence {
	for _, seq := range st.sequences {
		if seq.CompanyID == companyID && seq.TypeCode == typeCode && seq.IsActive {
			seq := seq
			return &seq
		}
	}
	return nil
}

// ── consecutivos ─────────────────────────────────────────────────────────────

type counterRepo struct{ base }

func (r *counterRepo) Next(_ context.Context, companyID, kind string) (int64, error) {
	var n int64
	err := r.with(func(st *state) error {
		key := companyID + "|" + kind
		st.counters[key]++
		n = st.counters[key]
		return nil
	})
	return n, err
}

// ── outbox ───────────────────────────────────────────────────────────────────

type outboxRepo struct{ base }

func (r *outboxRepo) Enqueue(_ context.Context, e *entity.OutboxEvent) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Status == "" {
		e.Status = entity.OutboxStatusPending
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	return r.with(func(st *state) error {
		st.outbox = append(st.outbox, *e)
		return nil
	})
}

func (r *outboxRepo) ClaimPending(_ context.Context, dispatcherID string, limit int, lockTimeout time.Duration) ([]*entity.OutboxEvent, error) {
	var out []*entity.OutboxEvent
	now := time.Now()
	err := r.with(func(st *state) error {
		for i := range st.outbox {
			if limit > 0 && len(out) >= limit {
				break
			}
			e := &st.outbox[i]
			ready := false
			switch e.Status {
			case entity.OutboxStatusPending:
				ready = true
			case entity.OutboxStatusFailed:
				ready = e.NextAttemptAt == nil || !e.NextAttemptAt.After(now)
			case entity.OutboxStatusProcessing:
				ready = e.LockedAt != nil && now.Sub(*e.LockedAt) > lockTimeout
			}
			if !ready {
				continue
			}
			e.Status = entity.OutboxStatusProcessing
			e.LockedAt = &now
			e.LockedBy = dispatcherID
			e.Attempts++
			cp := *e
			out = append(out, &cp)
		}
		return nil
	})
	return out, err
}

func (r *outboxRepo) MarkSent(_ context.Context, id string) error {
	return r.with(func(st *state) error {
		for i := range st.outbox {
			if st.outbox[i].ID == id {
				now := time.Now()
				st.outbox[i].Status = entity.OutboxStatusSent
				st.outbox[i].PublishedAt = &now
				st.outbox[i].LockedAt = nil
				st.outbox[i].LockedBy = ""
				return nil
			}
		}
		return fmt.Errorf("evento %s: %w", id, domain.ErrNotFound)
	})
}

func (r *outboxRepo) MarkFailed(_ context.Context, id, lastError string, nextAttemptAt *time.Time, dead bool) error {
	return r.with(func(st *state) error {
		for i := range st.outbox {
			if st.outbox[i].ID == id {
				st.outbox[i].Status = entity.OutboxStatusFailed
				if dead {
					st.outbox[i].Status = entity.OutboxStatusDead
				}
				st.outbox[i].LastError = lastError
				st.outbox[i].NextAttemptAt = nextAttemptAt
				st.outbox[i].LockedAt = nil
				st.outbox[i].LockedBy = ""
				return nil
			}
		}
		return fmt.Errorf("evento %s: %w", id, domain.ErrNotFound)
	})
}

// OutboxEvents devuelve una copia de los eventos encolados (inspección en pruebas y modo desarrollo).
func (s *Store) OutboxEvents() []entity.OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.OutboxEvent(nil), s.st.outbox...)
}

// Movements devuelve una copia de los movimientos de inventario.
func (s *Store) Movements() []entity.InventoryMovement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.InventoryMovement(nil), s.st.movements...)
}

func paginate[T any](list []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
