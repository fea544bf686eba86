package dto

// CreateNCFSequenceRequest body para POST /api/ncf-sequences.
type CreateNCFSequenceRequest struct {
	TypeCode       string `json:"type_code" validate:"required,len=3"`
	Prefix         string `json:"prefix" validate:"required,max=20"`
	StartNumber    int64  `json:"start_number" validate:"gte=1"`
	EndNumber      int64  `json:"end_number" validate:"gtefield=StartNumber"`
	NumberWidth    int    `json:"number_width" validate:"gte=0,lte=18"`
	ExpirationDate string `json:"expiration_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Activate       bool   `json:"activate"`
}

// NCFSequenceResponse secuencia con su estado de consumo.
type NCFSequenceResponse struct {
	ID             string `json:"id"`
	TypeCode       string `json:"type_code"`
	Prefix         string `json:"prefix"`
	StartNumber    int64  `json:"start_number"`
	CurrentNumber  int64  `json:"current_number"`
	EndNumber      int64  `json:"end_number"`
	NumberWidth    int    `json:"number_width"`
	Remaining      int64  `json:"remaining"`
	NextNCF        string `json:"next_ncf,omitempty"`
	ExpirationDate string `json:"expiration_date,omitempty"`
	IsActive       bool   `json:"is_active"`
	IsExpired      bool   `json:"is_expired"`
}

// NCFAllocationResponse NCF asignado manualmente.
type NCFAllocationResponse struct {
	SequenceID string `json:"sequence_id"`
	TypeCode   string `json:"type_code"`
	NCF        string `json:"ncf"`
}
