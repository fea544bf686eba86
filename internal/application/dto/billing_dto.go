package dto

import "github.com/shopspring/decimal"

// CreateInvoiceRequest body para POST /api/invoices.
// NCFType es opcional: si viene se asigna un NCF de ese tipo aunque la numeración fiscal esté apagada.
type CreateInvoiceRequest struct {
	ClientID     string            `json:"client_id" validate:"required"`
	Items        []LineItemRequest `json:"items" validate:"required,min=1,dive"`
	Currency     string            `json:"currency" validate:"omitempty,len=3"`
	IncludeITBIS bool              `json:"include_itbis"`
	IssueDate    string            `json:"issue_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DueDate      string            `json:"due_date" validate:"required,datetime=2006-01-02"`
	NCFType      string            `json:"ncf_type,omitempty" validate:"omitempty,max=3"`
}

// LineItemRequest línea de factura o cotización.
// UnitPrice ausente (null) toma el precio de catálogo; "0" es una línea sin cargo.
type LineItemRequest struct {
	ProductID      string           `json:"product_id" validate:"required"`
	Quantity       int64            `json:"quantity" validate:"gt=0"`
	UnitPrice      *decimal.Decimal `json:"unit_price,omitempty"`
	Discount       decimal.Decimal  `json:"discount"`
	NumberOfPeople *int             `json:"number_of_people,omitempty" validate:"omitempty,gt=0"`
}

// ClientSnapshotResponse datos del cliente congelados en el documento.
type ClientSnapshotResponse struct {
	Name    string `json:"name"`
	TaxID   string `json:"tax_id,omitempty"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
}

// LineItemResponse línea en respuestas.
type LineItemResponse struct {
	ProductID      string          `json:"product_id"`
	ProductName    string          `json:"product_name"`
	ProductType    string          `json:"product_type"`
	Quantity       int64           `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Discount       decimal.Decimal `json:"discount"`
	FinalPrice     decimal.Decimal `json:"final_price"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	IsTaxExempt    bool            `json:"is_tax_exempt"`
	NumberOfPeople *int            `json:"number_of_people,omitempty"`
}

// InvoiceResponse factura completa para GET /api/invoices/:id.
type InvoiceResponse struct {
	ID            string                 `json:"id"`
	CompanyID     string                 `json:"company_id"`
	UserID        string                 `json:"user_id"`
	ClientID      string                 `json:"client_id"`
	Client        ClientSnapshotResponse `json:"client"`
	InvoiceNumber string                 `json:"invoice_number"`
	NCFType       string                 `json:"ncf_type,omitempty"`
	NCF           string                 `json:"ncf,omitempty"`
	Currency      string                 `json:"currency"`
	IncludeITBIS  bool                   `json:"include_itbis"`
	Items         []LineItemResponse     `json:"items"`
	Subtotal      decimal.Decimal        `json:"subtotal"`
	DiscountTotal decimal.Decimal        `json:"discount_total"`
	ITBIS         decimal.Decimal        `json:"itbis"`
	Total         decimal.Decimal        `json:"total"`
	BalanceDue    decimal.Decimal        `json:"balance_due"`
	Status        string                 `json:"status"`
	Payments      []PaymentResponse      `json:"payments"`
	QuoteID       string                 `json:"quote_id,omitempty"`
	IssueDate     string                 `json:"issue_date"`
	DueDate       string                 `json:"due_date"`
}

// InvoiceListResponse listado paginado.
type InvoiceListResponse struct {
	Items []InvoiceResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// InvoiceListQuery filtros de GET /api/invoices.
type InvoiceListQuery struct {
	PageRequest
	Status string `query:"status" validate:"omitempty,oneof=pendiente vencida pagada 'parcialmente pagada'"`
}

// AddPaymentRequest body para POST /api/invoices/:id/payments.
type AddPaymentRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate string          `json:"payment_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Method      string          `json:"method" validate:"required,oneof=efectivo transferencia tarjeta"`
	Note        string          `json:"note,omitempty" validate:"max=500"`
	ImageURL    string          `json:"image_url,omitempty" validate:"omitempty,url"`
}

// PaymentResponse pago aplicado.
type PaymentResponse struct {
	ID            string          `json:"id"`
	InvoiceID     string          `json:"invoice_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentDate   string          `json:"payment_date"`
	Method        string          `json:"method"`
	Note          string          `json:"note,omitempty"`
	ImageURL      string          `json:"image_url,omitempty"`
	ReceiptNumber string          `json:"receipt_number"`
	Status        string          `json:"status"`
}

// AddPaymentResponse pago registrado más el estado resultante de la factura.
type AddPaymentResponse struct {
	Payment    PaymentResponse `json:"payment"`
	BalanceDue decimal.Decimal `json:"balance_due"`
	Status     string          `json:"status"`
}
