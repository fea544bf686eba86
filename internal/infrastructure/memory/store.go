// Package memory implementa la unidad de trabajo y los repositorios en memoria.
// Se usa en modo desarrollo sin base de datos y como doble de pruebas.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

var _ repository.UnitOfWork = (*Store)(nil)

// Store guarda todo el estado detrás de un único mutex.
// Run mantiene el mutex durante toda la unidad de trabajo, de modo que las transacciones son seriales.
type Store struct {
	mu sync.Mutex
	st *state
}

type state struct {
	products  map[string]entity.Product
	clients   map[string]entity.Client
	movements []entity.InventoryMovement
	invoices  map[string]entity.Invoice
	quotes    map[string]entity.Quote
	sequences map[string]entity.NCFSequence
	counters  map[string]int64
	outbox    []entity.OutboxEvent
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{st: &state{
		products:  make(map[string]entity.Product),
		clients:   make(map[string]entity.Client),
		invoices:  make(map[string]entity.Invoice),
		quotes:    make(map[string]entity.Quote),
		sequences: make(map[string]entity.NCFSequence),
		counters:  make(map[string]int64),
	}}
}

// Run ejecuta fn con repos sin bloqueo propio (el mutex ya está tomado).
// Si fn falla se restaura la foto tomada al inicio.
func (s *Store) Run(ctx context.Context, fn func(ctx context.Context, tx repository.Repos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	snapshot := s.st.clone()
	if err := fn(ctx, s.repos(false)); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

// Repos devuelve repos que toman el mutex en cada llamada (lecturas fuera de transacción).
// No deben usarse dentro de Run.
func (s *Store) Repos() repository.Repos {
	return s.repos(true)
}

func (s *Store) repos(locking bool) repository.Repos {
	b := base{s: s, locking: locking}
	return repository.Repos{
		Products:  &productRepo{b},
		Clients:   &clientRepo{b},
		Movements: &movementRepo{b},
		Invoices:  &invoiceRepo{b},
		Quotes:    &quoteRepo{b},
		Sequences: &sequenceRepo{b},
		Counters:  &counterRepo{b},
		Outbox:    &outboxRepo{b},
	}
}

type base struct {
	s       *Store
	locking bool
}

// with ejecuta fn sobre el estado vigente, tomando el mutex si el repo no está dentro de Run.
func (b base) with(fn func(st *state) error) error {
	if b.locking {
		b.s.mu.Lock()
		defer b.s.mu.Unlock()
	}
	return fn(b.s.st)
}

// ── copias profundas ─────────────────────────────────────────────────────────

func (st *state) clone() *state {
	c := &state{
		products:  make(map[string]entity.Product, len(st.products)),
		clients:   make(map[string]entity.Client, len(st.clients)),
		movements: append([]entity.InventoryMovement(nil), st.movements...),
		invoices:  make(map[string]entity.Invoice, len(st.invoices)),
		quotes:    make(map[string]entity.Quote, len(st.quotes)),
		sequences: make(map[string]entity.NCFSequence, len(st.sequences)),
		counters:  make(map[string]int64, len(st.counters)),
		outbox:    append([]entity.OutboxEvent(nil), st.outbox...),
	}
	for k, v := range st.products {
		c.products[k] = copyProduct(v)
	}
	for k, v := range st.clients {
		c.clients[k] = v
	}
	for k, v := range st.invoices {
		c.invoices[k] = copyInvoice(v)
	}
	for k, v := range st.quotes {
		c.quotes[k] = copyQuote(v)
	}
	for k, v := range st.sequences {
		c.sequences[k] = v
	}
	for k, v := range st.counters {
		c.counters[k] = v
	}
	return c
}

func copyProduct(p entity.Product) entity.Product {
	p.Batches = append([]entity.Batch(nil), p.Batches...)
	return p
}

func copyInvoice(inv entity.Invoice) entity.Invoice {
	inv.Items = append([]entity.LineItem(nil), inv.Items...)
	inv.Payments = append([]entity.Payment(nil), inv.Payments...)
	return inv
}

func copyQuote(q entity.Quote) entity.Quote {
	q.Items = append([]entity.LineItem(nil), q.Items...)
	return q
}
