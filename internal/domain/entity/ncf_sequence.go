package entity

import (
	"fmt"
	"strconv"
	"time"
)

// NCFSequence representa un rango autorizado de comprobantes fiscales (NCF) para un tipo.
// Solo una secuencia activa por empresa y tipo. CurrentNumber es el próximo número a emitir;
// CurrentNumber > EndNumber significa agotada.
type NCFSequence struct {
	ID             string
	CompanyID      string
	TypeCode       string // ej: "B01" crédito fiscal, "B02" consumo
	Prefix         string
	StartNumber    int64
	CurrentNumber  int64
	EndNumber      int64
	NumberWidth    int // 0 = sin relleno de ceros
	ExpirationDate *time.Time
	IsActive       bool
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsExhausted indica si ya no quedan números en el rango.
func (s *NCFSequence) IsExhausted() bool {
	return s.CurrentNumber > s.EndNumber
}

// IsExpired indica si la fecha de vencimiento es anterior a hoy.
func (s *NCFSequence) IsExpired(now time.Time) bool {
	return s.ExpirationDate != nil && IsPastDay(*s.ExpirationDate, now)
}

// Remaining números disponibles.
func (s *NCFSequence) Remaining() int64 {
	if s.IsExhausted() {
		return 0
	}
	return s.EndNumber - s.CurrentNumber + 1
}

// Format compone el NCF emitido: prefijo + número (con relleno si NumberWidth > 0).
func (s *NCFSequence) Format(n int64) string {
	if s.NumberWidth > 0 {
		return fmt.Sprintf("%s%0*d", s.Prefix, s.NumberWidth, n)
	}
	return s.Prefix + strconv.FormatInt(n, 10)
}

// Validate revisa la coherencia del rango antes de persistir.
func (s *NCFSequence) Validate() error {
	switch {
	case s.TypeCode == "":
		return fmt.Errorf("type_code requerido")
	case s.StartNumber < 1:
		return fmt.Errorf("start_number debe ser >= 1")
	case s.EndNumber < s.StartNumber:
		return fmt.Errorf("end_number debe ser >= start_number")
	case s.CurrentNumber < s.StartNumber || s.CurrentNumber > s.EndNumber+1:
		return fmt.Errorf("current_number fuera de rango")
	case s.NumberWidth < 0 || s.NumberWidth > 18:
		return fmt.Errorf("number_width inválido")
	}
	return nil
}
