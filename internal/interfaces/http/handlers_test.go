package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Ventas-api/internal/application/billing"
	"github.com/jhoicas/Ventas-api/internal/application/dto"
	"github.com/jhoicas/Ventas-api/internal/application/fiscal"
	"github.com/jhoicas/Ventas-api/internal/application/inventory"
	"github.com/jhoicas/Ventas-api/internal/application/payment"
	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/Ventas-api/internal/interfaces/http"
)

// ── fixture ──────────────────────────────────────────────────────────────────

type apiFixture struct {
	app      *fiber.App
	store    *memory.Store
	idem     *fakeIdempotency
	clientID string
	seller   string
	admin    string
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	store := memory.NewStore()
	reader := store.Repos()
	cfg := billing.Config{}
	alloc := fiscal.NewAllocator(store, nil, nil)
	invoices := billing.NewInvoiceUseCase(store, reader, inventory.NewLedger(nil), alloc, cfg, nil)
	idem := newFakeIdempotency()

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Invoices:    invoices,
		Quotes:      billing.NewQuoteUseCase(store, reader, cfg, nil),
		Payments:    payment.NewLedger(store, nil),
		Sequences:   fiscal.NewSequenceUseCase(store, reader),
		Reader:      reader,
		Idempotency: idem,
		JWTSecret:   testJWTSecret,
		JWTIssuer:   testIssuer,
	})

	client := &entity.Client{CompanyID: testCompanyID, Name: "Cliente Uno"}
	require.NoError(t, reader.Clients.Create(context.Background(), client))
	return &apiFixture{
		app:      app,
		store:    store,
		idem:     idem,
		clientID: client.ID,
		seller:   bearer(t, testUserID, "vendedor"),
		admin:    bearer(t, testUserID, "admin"),
	}
}

func (f *apiFixture) good(t *testing.T, price int64, stock int64) string {
	t.Helper()
	p := &entity.Product{
		CompanyID:   testCompanyID,
		Code:        "P-" + decimal.NewFromInt(price).String(),
		Name:        "Producto",
		ProductType: entity.ProductTypeGood,
		Currency:    "DOP",
		Price:       decimal.NewFromInt(price),
		IsActive:    true,
		Batches:     []entity.Batch{{Stock: stock, Cost: decimal.NewFromInt(price / 2)}},
	}
	require.NoError(t, f.store.Repos().Products.Create(context.Background(), p))
	return p.ID
}

func (f *apiFixture) invoiceBody(productID string, qty int64, discount string) map[string]any {
	return map[string]any{
		"client_id":     f.clientID,
		"include_itbis": true,
		"due_date":      "2099-12-31",
		"items": []map[string]any{
			{"product_id": productID, "quantity": qty, "unit_price": "100", "discount": discount},
		},
	}
}

func (f *apiFixture) do(t *testing.T, method, path, auth string, body any, headers ...string) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	return decode[dto.ErrorResponse](t, resp).Code
}

// fakeIdempotency store en memoria con la misma semántica que el de Redis.
type fakeIdempotency struct {
	mu       sync.Mutex
	done     map[string]dto.StoredResponse
	inFlight map[string]bool
	held     []string // claves del cliente que otra petición tiene tomadas
}

func newFakeIdempotency() *fakeIdempotency {
	return &fakeIdempotency{done: map[string]dto.StoredResponse{}, inFlight: map[string]bool{}}
}

func (f *fakeIdempotency) Begin(_ context.Context, key string) (*dto.StoredResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, h := range f.held {
		if strings.HasSuffix(key, ":"+h) {
			return nil, domain.ErrIdempotencyInProgress
		}
	}
	if resp, ok := f.done[key]; ok {
		return &resp, nil
	}
	if f.inFlight[key] {
		return nil, domain.ErrIdempotencyInProgress
	}
	f.inFlight[key] = true
	return nil, nil
}

func (f *fakeIdempotency) Complete(_ context.Context, key string, resp dto.StoredResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.inFlight, key)
	f.done[key] = resp
	return nil
}

func (f *fakeIdempotency) Release(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.inFlight, key)
	return nil
}

// ── facturas ─────────────────────────────────────────────────────────────────

func TestInvoiceAPI_CrearYConsultar(t *testing.T) {
	f := newAPI(t)
	productID := f.good(t, 100, 5)

	resp := f.do(t, http.MethodPost, "/api/invoices", f.seller, f.invoiceBody(productID, 2, "10"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[dto.InvoiceResponse](t, resp)

	assert.True(t, decimal.RequireFromString("212.40").Equal(created.Total), "total %s", created.Total)
	assert.True(t, decimal.RequireFromString("32.40").Equal(created.ITBIS))
	assert.Equal(t, "FAC-000001", created.InvoiceNumber)
	assert.Equal(t, entity.InvoiceStatusPending, created.Status)

	resp = f.do(t, http.MethodGet, "/api/invoices/"+created.ID, f.seller, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[dto.InvoiceResponse](t, resp)
	assert.Equal(t, created.ID, got.ID)
	assert.True(t, created.BalanceDue.Equal(got.BalanceDue))

	resp = f.do(t, http.MethodGet, "/api/invoices?status=pendiente", f.seller, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[dto.InvoiceListResponse](t, resp)
	require.Len(t, list.Items, 1)
	assert.Equal(t, 20, list.Page.Limit)
}

func TestInvoiceAPI_ErroresDeEntrada(t *testing.T) {
	f := newAPI(t)
	productID := f.good(t, 100, 5)
	noDue := f.invoiceBody(productID, 1, "0")
	delete(noDue, "due_date")

	cases := []struct {
		name string
		body any
		code string
	}{
		{"json inválido", "{no es json", "INVALID_BODY"},
		{"sin vencimiento", noDue, "VALIDATION"},
		{"sin líneas", map[string]any{"client_id": f.clientID, "due_date": "2099-12-31"}, "VALIDATION"},
		{"producto inexistente", f.invoiceBody("no-existe", 1, "0"), "VALIDATION"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := f.do(t, http.MethodPost, "/api/invoices", f.seller, tc.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tc.code, errorCode(t, resp))
		})
	}

	resp := f.do(t, http.MethodGet, "/api/invoices?status=anulada", f.seller, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestInvoiceAPI_StockInsuficiente(t *testing.T) {
	f := newAPI(t)
	productID := f.good(t, 100, 1)

	resp := f.do(t, http.MethodPost, "/api/invoices", f.seller, f.invoiceBody(productID, 2, "0"))

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INSUFFICIENT_STOCK", errorCode(t, resp))
}

func TestInvoiceAPI_SinToken(t *testing.T) {
	f := newAPI(t)

	resp := f.do(t, http.MethodGet, "/api/invoices", "", nil)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestInvoiceAPI_FacturaNoEncontrada(t *testing.T) {
	f := newAPI(t)

	resp := f.do(t, http.MethodGet, "/api/invoices/no-existe", f.seller, nil)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", errorCode(t, resp))
}

// ── pagos y eliminación ──────────────────────────────────────────────────────

func TestPaymentAPI_ErroresYPagoTotal(t *testing.T) {
	f := newAPI(t)
	productID := f.good(t, 100, 5)
	created := decode[dto.InvoiceResponse](t, f.do(t, http.MethodPost, "/api/invoices", f.seller, f.invoiceBody(productID, 2, "10")))
	path := "/api/invoices/" + created.ID + "/payments"

	resp := f.do(t, http.MethodPost, path, f.seller, map[string]any{"amount": "0", "method": "efectivo"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_AMOUNT", errorCode(t, resp))

	resp = f.do(t, http.MethodPost, path, f.seller, map[string]any{"amount": "300", "method": "efectivo"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "OVERPAYMENT_REJECTED", errorCode(t, resp))

	resp = f.do(t, http.MethodPost, path, f.seller, map[string]any{"amount": "100", "method": "cheque"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", errorCode(t, resp))

	resp = f.do(t, http.MethodPost, path, f.seller, map[string]any{"amount": "212.40", "method": "transferencia"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	paid := decode[dto.AddPaymentResponse](t, resp)
	assert.Equal(t, entity.InvoiceStatusPaid, paid.Status)
	assert.True(t, paid.BalanceDue.IsZero())
	assert.Equal(t, "FAC-000001-R01", paid.Payment.ReceiptNumber)

	resp = f.do(t, http.MethodGet, path, f.seller, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]dto.PaymentResponse](t, resp), 1)

	resp = f.do(t, http.MethodDelete, "/api/invoices/"+created.ID, f.seller, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "FAILED_PRECONDITION", errorCode(t, resp))
}

func TestInvoiceAPI_EliminarSoloElCreador(t *testing.T) {
	f := newAPI(t)
	productID := f.good(t, 100, 5)
	created := decode[dto.InvoiceResponse](t, f.do(t, http.MethodPost, "/api/invoices", f.seller, f.invoiceBody(productID, 3, "0")))

	other := bearer(t, "00000000-0000-0000-0000-000000000009", "vendedor")
	resp := f.do(t, http.MethodDelete, "/api/invoices/"+created.ID, other, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = f.do(t, http.MethodDelete, "/api/invoices/"+created.ID, f.seller, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	p, err := f.store.Repos().Products.GetByID(context.Background(), productID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), p.Stock())
}

// ── idempotencia ─────────────────────────────────────────────────────────────

func TestInvoiceAPI_IdempotencyKeyRepiteRespuesta(t *testing.T) {
	f := newAPI(t)
	productID := f.good(t, 100, 5)
	body := f.invoiceBody(productID, 1, "0")

	first := f.do(t, http.MethodPost, "/api/invoices", f.seller, body, "Idempotency-Key", "abc-1")
	require.Equal(t, http.StatusCreated, first.StatusCode)
	firstInv := decode[dto.InvoiceResponse](t, first)

	second := f.do(t, http.MethodPost, "/api/invoices", f.seller, body, "Idempotency-Key", "abc-1")
	require.Equal(t, http.StatusCreated, second.StatusCode)
	assert.Equal(t, "true", second.Header.Get("Idempotent-Replayed"))
	assert.Equal(t, firstInv.ID, decode[dto.InvoiceResponse](t, second).ID)

	p, err := f.store.Repos().Products.GetByID(context.Background(), productID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), p.Stock(), "el stock se descuenta una sola vez")
}

func TestInvoiceAPI_IdempotencyKeyEnCurso(t *testing.T) {
	f := newAPI(t)
	productID := f.good(t, 100, 5)
	f.idem.held = append(f.idem.held, "abc-2")

	resp := f.do(t, http.MethodPost, "/api/invoices", f.seller, f.invoiceBody(productID, 1, "0"), "Idempotency-Key", "abc-2")

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "IDEMPOTENCY_IN_PROGRESS", errorCode(t, resp))
}

// Una respuesta de error libera la clave: el reintento se procesa de nuevo.
func TestInvoiceAPI_IdempotencyKeyLiberadaTrasError(t *testing.T) {
	f := newAPI(t)
	productID := f.good(t, 100, 1)

	resp := f.do(t, http.MethodPost, "/api/invoices", f.seller, f.invoiceBody(productID, 2, "0"), "Idempotency-Key", "abc-3")
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/api/invoices", f.seller, f.invoiceBody(productID, 1, "0"), "Idempotency-Key", "abc-3")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

// ── cotizaciones ─────────────────────────────────────────────────────────────

func TestQuoteAPI_ConvertirUnaSolaVez(t *testing.T) {
	f := newAPI(t)
	productID := f.good(t, 100, 5)
	body := f.invoiceBody(productID, 2, "10")
	delete(body, "due_date")
	body["valid_until"] = "2099-12-31"

	resp := f.do(t, http.MethodPost, "/api/quotes", f.seller, body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	quote := decode[dto.QuoteResponse](t, resp)
	assert.Equal(t, "COT-000001", quote.QuoteNumber)
	assert.Equal(t, entity.QuoteStatusDraft, quote.Status)

	resp = f.do(t, http.MethodPatch, "/api/quotes/"+quote.ID+"/status", f.seller, map[string]any{"status": "enviada"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/api/quotes/"+quote.ID+"/convert", f.seller, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	inv := decode[dto.InvoiceResponse](t, resp)
	assert.Equal(t, quote.ID, inv.QuoteID)
	assert.True(t, quote.Total.Equal(inv.Total))

	resp = f.do(t, http.MethodPost, "/api/quotes/"+quote.ID+"/convert", f.seller, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "FAILED_PRECONDITION", errorCode(t, resp))

	resp = f.do(t, http.MethodGet, "/api/quotes/"+quote.ID, f.seller, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, inv.ID, decode[dto.QuoteResponse](t, resp).ConvertedInvoiceID)
}

// ── secuencias NCF ───────────────────────────────────────────────────────────

func TestNCFSequenceAPI_SoloAdminYAsignacion(t *testing.T) {
	f := newAPI(t)
	productID := f.good(t, 100, 5)
	seqBody := map[string]any{
		"type_code": "B01", "prefix": "B01", "start_number": 1, "end_number": 2, "number_width": 8,
	}

	resp := f.do(t, http.MethodPost, "/api/ncf-sequences", f.seller, seqBody)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	invoice := f.invoiceBody(productID, 1, "0")
	invoice["ncf_type"] = "B01"
	resp = f.do(t, http.MethodPost, "/api/invoices", f.seller, invoice)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "NO_ACTIVE_SEQUENCE", errorCode(t, resp))

	resp = f.do(t, http.MethodPost, "/api/ncf-sequences", f.admin, seqBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	seq := decode[dto.NCFSequenceResponse](t, resp)
	assert.False(t, seq.IsActive)

	resp = f.do(t, http.MethodPost, "/api/ncf-sequences/"+seq.ID+"/activate", f.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/api/invoices", f.seller, invoice)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "B0100000001", decode[dto.InvoiceResponse](t, resp).NCF)

	resp = f.do(t, http.MethodGet, "/api/ncf-sequences", f.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[[]dto.NCFSequenceResponse](t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, int64(1), list[0].Remaining)
	assert.Equal(t, "B0100000002", list[0].NextNCF)

	resp = f.do(t, http.MethodPost, "/api/ncf-sequences/"+seq.ID+"/deactivate", f.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decode[dto.NCFSequenceResponse](t, resp).IsActive)
}
