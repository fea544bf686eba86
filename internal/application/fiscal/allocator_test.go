package fiscal_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Ventas-api/internal/application/dto"
	"github.com/jhoicas/Ventas-api/internal/application/fiscal"
	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/memory"
)

const testCompanyID = "company-1"

func seedSequence(t *testing.T, store *memory.Store, seq entity.NCFSequence) *entity.NCFSequence {
	t.Helper()
	if seq.CompanyID == "" {
		seq.CompanyID = testCompanyID
	}
	if seq.CurrentNumber == 0 {
		seq.CurrentNumber = seq.StartNumber
	}
	seq.IsActive = true
	seq.Version = 1
	require.NoError(t, store.Repos().Sequences.Create(context.Background(), &seq))
	return &seq
}

// ── AllocateNext ─────────────────────────────────────────────────────────────

// Rango 1..2 con prefijo B01-: dos asignaciones y luego agotada.
func TestAllocate_RangoCortoSeAgota(t *testing.T) {
	store := memory.NewStore()
	seedSequence(t, store, entity.NCFSequence{TypeCode: "B01", Prefix: "B01-", StartNumber: 1, EndNumber: 2})
	alloc := fiscal.NewAllocator(store, nil, nil)
	ctx := context.Background()

	first, err := alloc.Allocate(ctx, testCompanyID, "B01")
	require.NoError(t, err)
	second, err := alloc.Allocate(ctx, testCompanyID, "B01")
	require.NoError(t, err)
	_, err = alloc.Allocate(ctx, testCompanyID, "B01")

	assert.Equal(t, "B01-1", first.NCF)
	assert.Equal(t, "B01-2", second.NCF)
	assert.ErrorIs(t, err, domain.ErrSequenceExhausted)
}

func TestAllocate_RellenoConCeros(t *testing.T) {
	store := memory.NewStore()
	seedSequence(t, store, entity.NCFSequence{TypeCode: "B02", Prefix: "B02", StartNumber: 7, EndNumber: 100, NumberWidth: 8})
	alloc := fiscal.NewAllocator(store, nil, nil)

	got, err := alloc.Allocate(context.Background(), testCompanyID, "B02")

	require.NoError(t, err)
	assert.Equal(t, "B0200000007", got.NCF)
	assert.Equal(t, int64(7), got.Value)
}

func TestAllocate_SinSecuenciaActiva(t *testing.T) {
	store := memory.NewStore()
	alloc := fiscal.NewAllocator(store, nil, nil)

	_, err := alloc.Allocate(context.Background(), testCompanyID, "B01")

	assert.ErrorIs(t, err, domain.ErrNoActiveSequence)
}

func TestAllocate_SecuenciaVencida(t *testing.T) {
	store := memory.NewStore()
	exp := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	seedSequence(t, store, entity.NCFSequence{TypeCode: "B01", Prefix: "B01", StartNumber: 1, EndNumber: 10, ExpirationDate: &exp})
	alloc := fiscal.NewAllocator(store, nil, nil).
		WithClock(func() time.Time { return time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC) })

	_, err := alloc.Allocate(context.Background(), testCompanyID, "B01")

	assert.ErrorIs(t, err, domain.ErrSequenceExpired)
}

func TestAllocate_VenceHoyTodaviaSirve(t *testing.T) {
	store := memory.NewStore()
	exp := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	seedSequence(t, store, entity.NCFSequence{TypeCode: "B01", Prefix: "B01", StartNumber: 1, EndNumber: 10, ExpirationDate: &exp})
	alloc := fiscal.NewAllocator(store, nil, nil).
		WithClock(func() time.Time { return time.Date(2025, 1, 1, 18, 0, 0, 0, time.UTC) })

	_, err := alloc.Allocate(context.Background(), testCompanyID, "B01")

	assert.NoError(t, err)
}

// N asignaciones concurrentes producen N números distintos y sin huecos.
func TestAllocate_ConcurrenteSinDuplicadosNiHuecos(t *testing.T) {
	const n = 64
	store := memory.NewStore()
	seedSequence(t, store, entity.NCFSequence{TypeCode: "B01", Prefix: "B01", StartNumber: 1, EndNumber: 1000})
	alloc := fiscal.NewAllocator(store, nil, nil)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		values []int64
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := alloc.Allocate(context.Background(), testCompanyID, "B01")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			values = append(values, got.Value)
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, values, n)
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
	for i, v := range values {
		assert.Equal(t, int64(i+1), v)
	}
}

// ── reintentos del CAS ───────────────────────────────────────────────────────

// contendedSequences pierde el CAS las primeras `losses` veces, simulando otro escritor.
type contendedSequences struct {
	repository.NCFSequenceRepository
	seq    entity.NCFSequence
	losses int
	reads  int
}

func (c *contendedSequences) GetActive(context.Context, string, string) (*entity.NCFSequence, error) {
	c.reads++
	cp := c.seq
	return &cp, nil
}

func (c *contendedSequences) CompareAndAdvance(_ context.Context, _ string, version int64) (bool, error) {
	if c.losses > 0 {
		c.losses--
		c.seq.CurrentNumber++
		c.seq.Version++
		return false, nil
	}
	if version != c.seq.Version {
		return false, nil
	}
	c.seq.CurrentNumber++
	c.seq.Version++
	return true, nil
}

func TestAllocateNext_ReintentaTrasPerderCAS(t *testing.T) {
	seqs := &contendedSequences{
		seq:    entity.NCFSequence{ID: "s1", CompanyID: testCompanyID, TypeCode: "B01", Prefix: "B01", StartNumber: 1, CurrentNumber: 1, EndNumber: 10, Version: 1, IsActive: true},
		losses: 2,
	}
	alloc := fiscal.NewAllocator(memory.NewStore(), nil, nil)

	got, err := alloc.AllocateNext(context.Background(), repository.Repos{Sequences: seqs}, testCompanyID, "B01")

	require.NoError(t, err)
	assert.Equal(t, "B013", got.NCF, "los números 1 y 2 los tomó el otro escritor")
	assert.Equal(t, 3, seqs.reads)
}

func TestAllocateNext_ReintentosAgotados(t *testing.T) {
	seqs := &contendedSequences{
		seq:    entity.NCFSequence{ID: "s1", CompanyID: testCompanyID, TypeCode: "B01", Prefix: "B01", StartNumber: 1, CurrentNumber: 1, EndNumber: 100, Version: 1, IsActive: true},
		losses: fiscal.MaxAllocationAttempts,
	}
	alloc := fiscal.NewAllocator(memory.NewStore(), nil, nil)

	_, err := alloc.AllocateNext(context.Background(), repository.Repos{Sequences: seqs}, testCompanyID, "B01")

	assert.ErrorIs(t, err, domain.ErrSequenceConflict)
}

// ── candado ──────────────────────────────────────────────────────────────────

type failingLocker struct{ calls int }

func (f *failingLocker) Acquire(context.Context, string, time.Duration) (func(), error) {
	f.calls++
	return nil, fmt.Errorf("redis caído")
}

func TestAllocate_SinCandadoIgualAsigna(t *testing.T) {
	store := memory.NewStore()
	seedSequence(t, store, entity.NCFSequence{TypeCode: "B01", Prefix: "B01", StartNumber: 1, EndNumber: 10})
	locker := &failingLocker{}
	alloc := fiscal.NewAllocator(store, locker, nil)

	got, err := alloc.Allocate(context.Background(), testCompanyID, "B01")

	require.NoError(t, err)
	assert.Equal(t, "B011", got.NCF)
	assert.Equal(t, 1, locker.calls)
}

// ── configuración de secuencias ──────────────────────────────────────────────

func TestSequenceUseCase_SegundaActivaRechazada(t *testing.T) {
	store := memory.NewStore()
	uc := fiscal.NewSequenceUseCase(store, store.Repos())
	ctx := context.Background()

	_, err := uc.Create(ctx, testCompanyID, dto.CreateNCFSequenceRequest{TypeCode: "b01", Prefix: "B01", StartNumber: 1, EndNumber: 10, Activate: true})
	require.NoError(t, err)
	_, err = uc.Create(ctx, testCompanyID, dto.CreateNCFSequenceRequest{TypeCode: "B01", Prefix: "B01", StartNumber: 11, EndNumber: 20, Activate: true})

	assert.ErrorIs(t, err, domain.ErrFailedPrecondition)
}

func TestSequenceUseCase_ActivarReemplazaLaAnterior(t *testing.T) {
	store := memory.NewStore()
	uc := fiscal.NewSequenceUseCase(store, store.Repos())
	ctx := context.Background()

	first, err := uc.Create(ctx, testCompanyID, dto.CreateNCFSequenceRequest{TypeCode: "B01", Prefix: "B01", StartNumber: 1, EndNumber: 10, Activate: true})
	require.NoError(t, err)
	second, err := uc.Create(ctx, testCompanyID, dto.CreateNCFSequenceRequest{TypeCode: "B01", Prefix: "B01", StartNumber: 11, EndNumber: 20})
	require.NoError(t, err)

	_, err = uc.Activate(ctx, testCompanyID, second.ID)
	require.NoError(t, err)

	list, err := uc.List(ctx, testCompanyID)
	require.NoError(t, err)
	active := 0
	for _, s := range list {
		if s.IsActive {
			active++
			assert.Equal(t, second.ID, s.ID)
		}
	}
	assert.Equal(t, 1, active)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestSequenceUseCase_RangoInvalido(t *testing.T) {
	store := memory.NewStore()
	uc := fiscal.NewSequenceUseCase(store, store.Repos())

	_, err := uc.Create(context.Background(), testCompanyID, dto.CreateNCFSequenceRequest{TypeCode: "B01", Prefix: "B01", StartNumber: 10, EndNumber: 5})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSequenceUseCase_OtraEmpresaProhibido(t *testing.T) {
	store := memory.NewStore()
	uc := fiscal.NewSequenceUseCase(store, store.Repos())
	ctx := context.Background()
	seq, err := uc.Create(ctx, testCompanyID, dto.CreateNCFSequenceRequest{TypeCode: "B01", Prefix: "B01", StartNumber: 1, EndNumber: 10})
	require.NoError(t, err)

	_, err = uc.Deactivate(ctx, "otra-empresa", seq.ID)

	assert.ErrorIs(t, err, domain.ErrForbidden)
}
