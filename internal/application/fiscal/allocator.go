package fiscal

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

// MaxAllocationAttempts reintentos del compare-and-swap antes de rendirse.
const MaxAllocationAttempts = 5

// lockTTL vida máxima del candado distribuido de una secuencia.
const lockTTL = 10 * time.Second

// SequenceLocker candado best-effort por secuencia. La corrección la da el CAS en la base;
// el candado solo reduce la contención entre réplicas.
type SequenceLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// NoopLocker no bloquea nada (sin Redis).
type NoopLocker struct{}

// Acquire implementa SequenceLocker.
func (NoopLocker) Acquire(context.Context, string, time.Duration) (func(), error) {
	return func() {}, nil
}

// Allocation NCF asignado.
type Allocation struct {
	SequenceID string
	TypeCode   string
	Value      int64
	NCF        string
}

// Allocator asigna números fiscales consecutivos sin duplicados.
type Allocator struct {
	uow    repository.UnitOfWork
	locker SequenceLocker
	log    *logger.Logger
	now    func() time.Time
}

// NewAllocator construye el asignador. locker puede ser nil.
func NewAllocator(uow repository.UnitOfWork, locker SequenceLocker, log *logger.Logger) *Allocator {
	if locker == nil {
		locker = NoopLocker{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Allocator{uow: uow, locker: locker, log: log, now: time.Now}
}

// WithClock reemplaza el reloj (pruebas de vencimiento).
func (a *Allocator) WithClock(now func() time.Time) *Allocator {
	a.now = now
	return a
}

// AllocateNext toma el siguiente número de la secuencia activa dentro de la transacción del caller.
// Si otro escritor avanzó la secuencia entre la lectura y el CAS, relee y reintenta.
func (a *Allocator) AllocateNext(ctx context.Context, tx repository.Repos, companyID, typeCode string) (*Allocation, error) {
	for attempt := 1; attempt <= MaxAllocationAttempts; attempt++ {
		seq, err := tx.Sequences.GetActive(ctx, companyID, typeCode)
		if err != nil {
			return nil, err
		}
		if seq == nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrNoActiveSequence, typeCode)
		}
		if seq.IsExpired(a.now()) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSequenceExpired, typeCode)
		}
		if seq.IsExhausted() {
			return nil, fmt.Errorf("%w: %s", domain.ErrSequenceExhausted, typeCode)
		}
		ok, err := tx.Sequences.CompareAndAdvance(ctx, seq.ID, seq.Version)
		if err != nil {
			return nil, err
		}
		if ok {
			return &Allocation{
				SequenceID: seq.ID,
				TypeCode:   seq.TypeCode,
				Value:      seq.CurrentNumber,
				NCF:        seq.Format(seq.CurrentNumber),
			}, nil
		}
		a.log.Debug().Str("type_code", typeCode).Int("attempt", attempt).Msg("CAS de secuencia perdido, reintentando")
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrSequenceConflict, typeCode)
}

// Allocate asigna un NCF en su propia unidad de trabajo (asignación manual desde CLI o API).
func (a *Allocator) Allocate(ctx context.Context, companyID, typeCode string) (*Allocation, error) {
	release := a.Lock(ctx, companyID, typeCode)
	defer release()

	var out *Allocation
	err := a.uow.Run(ctx, func(ctx context.Context, tx repository.Repos) error {
		var err error
		out, err = a.AllocateNext(ctx, tx, companyID, typeCode)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Lock toma el candado de la secuencia si está disponible; si no, sigue sin él.
// Devuelve siempre una función de liberación válida.
func (a *Allocator) Lock(ctx context.Context, companyID, typeCode string) func() {
	release, err := a.locker.Acquire(ctx, LockKey(companyID, typeCode), lockTTL)
	if err != nil {
		a.log.Warn().Err(err).Str("type_code", typeCode).Msg("sin candado de secuencia, se continúa con CAS")
		return func() {}
	}
	return release
}

// LockKey clave del candado de una secuencia.
func LockKey(companyID, typeCode string) string {
	return "ncf:" + companyID + ":" + typeCode
}
