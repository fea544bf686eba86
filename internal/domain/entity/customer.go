package entity

import "time"

// Client representa un cliente de la empresa (facturación).
type Client struct {
	ID        string
	CompanyID string
	Name      string
	TaxID     string // RNC o cédula
	Email     string
	Phone     string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ClientSnapshot copia del cliente congelada en la factura o cotización.
type ClientSnapshot struct {
	Name    string
	TaxID   string
	Email   string
	Address string
}

// Snapshot congela los datos del cliente al momento de facturar.
func (c *Client) Snapshot() ClientSnapshot {
	return ClientSnapshot{Name: c.Name, TaxID: c.TaxID, Email: c.Email, Address: c.Address}
}
