package domain

import (
	"context"
	"errors"
	"time"
)

type CreateBillRequest struct {
	Actor         Actor
	Name          string
	Activity      string
	Desc          string
	Post          string
	Date          *time.Time
	Amount        int64
	PaymentMethod string
	IBAN          string

	ReceiptName  string
	ReceiptBytes []byte
}

type UpdateBillRequest struct {
	Actor         Actor
	ID            string
	Name          string
	Activity      string
	Desc          string
	Post          string
	Date          *time.Time
	Amount        int64
	PaymentMethod string
	IBAN          string
}

type ReplaceReceiptRequest struct {
	Actor        Actor
	ID           string
	ReceiptName  string
	ReceiptBytes []byte
}

type ListBillsResponse struct {
	Bills []Bill `json:"bills"`
}

type Service interface {
	Create(context.Context, CreateBillRequest) (Bill, error)
	Update(context.Context, UpdateBillRequest) (Bill, error)
	ReplaceReceipt(context.Context, ReplaceReceiptRequest) (Bill, error)
	GetByID(ctx context.Context, actor Actor, id string) (Bill, error)
	ListOwn(ctx context.Context, actor Actor) (ListBillsResponse, error)
	ListScoped(ctx context.Context, actor Actor) (ListBillsResponse, error)
	SetPaid(ctx context.Context, actor Actor, id string, paid bool) (Bill, error)
	SetBooked(ctx context.Context, actor Actor, id string, booked bool) (Bill, error)
	Delete(ctx context.Context, actor Actor, id string) error
}

var (
	ErrInvalidID              = errors.New("invalid_id")
	ErrInvalidName            = errors.New("invalid_name")
	ErrInvalidPost            = errors.New("invalid_post")
	ErrInvalidAmount          = errors.New("invalid_amount")
	ErrInvalidPaymentMethod   = errors.New("invalid_payment_method")
	ErrMissingIBAN            = errors.New("missing_iban")
	ErrMissingReceipt         = errors.New("missing_receipt")
	ErrUnsupportedReceiptType = errors.New("unsupported_receipt_type")
	ErrNotFound               = errors.New("not_found")
	ErrBillPaid               = errors.New("bill_paid")
	ErrForbidden              = errors.New("forbidden")
)
