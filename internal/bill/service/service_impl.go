package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/vtk-it/declaro/internal/bill/domain"
	"github.com/vtk-it/declaro/internal/clock"
	"github.com/vtk-it/declaro/internal/storage"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	Receipts storage.ReceiptStore
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	receipts storage.ReceiptStore
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("bill.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		receipts: p.Receipts,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateBillRequest) (domain.Bill, error) {
	if err := validateContent(req.Name, req.Post, req.Amount, req.PaymentMethod, req.IBAN); err != nil {
		return domain.Bill{}, err
	}

	ext, err := receiptExt(req.ReceiptName, req.ReceiptBytes)
	if err != nil {
		return domain.Bill{}, err
	}

	id := s.genID.Generate()
	key := fmt.Sprintf("%s.%s", id.String(), ext)
	if err := s.receipts.Save(key, req.ReceiptBytes); err != nil {
		return domain.Bill{}, err
	}

	bill := domain.Bill{
		ID:            id,
		Name:          strings.TrimSpace(req.Name),
		Activity:      strings.TrimSpace(req.Activity),
		Desc:          strings.TrimSpace(req.Desc),
		Post:          req.Post,
		Date:          req.Date,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		IBAN:          strings.TrimSpace(req.IBAN),
		Image:         key,
		UID:           req.Actor.UID,
		CreatedAt:     s.clock.Now(),
	}

	if err := s.repo.Insert(ctx, s.db, &bill); err != nil {
		if delErr := s.receipts.Delete(key); delErr != nil {
			s.log.Warn("orphaned receipt after failed insert",
				zap.String("key", key), zap.Error(delErr))
		}
		return domain.Bill{}, err
	}

	return bill, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateBillRequest) (domain.Bill, error) {
	bill, err := s.editableBill(ctx, req.Actor, req.ID)
	if err != nil {
		return domain.Bill{}, err
	}

	if err := validateContent(req.Name, req.Post, req.Amount, req.PaymentMethod, req.IBAN); err != nil {
		return domain.Bill{}, err
	}

	bill.Name = strings.TrimSpace(req.Name)
	bill.Activity = strings.TrimSpace(req.Activity)
	bill.Desc = strings.TrimSpace(req.Desc)
	bill.Post = req.Post
	bill.Date = req.Date
	bill.Amount = req.Amount
	bill.PaymentMethod = req.PaymentMethod
	bill.IBAN = strings.TrimSpace(req.IBAN)

	if err := s.repo.Update(ctx, s.db, bill); err != nil {
		return domain.Bill{}, err
	}
	return *bill, nil
}

func (s *Service) ReplaceReceipt(ctx context.Context, req domain.ReplaceReceiptRequest) (domain.Bill, error) {
	bill, err := s.editableBill(ctx, req.Actor, req.ID)
	if err != nil {
		return domain.Bill{}, err
	}

	ext, err := receiptExt(req.ReceiptName, req.ReceiptBytes)
	if err != nil {
		return domain.Bill{}, err
	}

	oldKey := bill.Image
	key := fmt.Sprintf("%s.%s", bill.ID.String(), ext)
	if err := s.receipts.Save(key, req.ReceiptBytes); err != nil {
		return domain.Bill{}, err
	}

	bill.Image = key
	if err := s.repo.Update(ctx, s.db, bill); err != nil {
		return domain.Bill{}, err
	}

	if oldKey != key {
		if err := s.receipts.Delete(oldKey); err != nil {
			s.log.Warn("stale receipt not removed",
				zap.String("key", oldKey), zap.Error(err))
		}
	}
	return *bill, nil
}

func (s *Service) GetByID(ctx context.Context, actor domain.Actor, id string) (domain.Bill, error) {
	bill, err := s.findBill(ctx, id)
	if err != nil {
		return domain.Bill{}, err
	}
	if !visible(actor, *bill) {
		return domain.Bill{}, domain.ErrForbidden
	}
	return *bill, nil
}

func (s *Service) ListOwn(ctx context.Context, actor domain.Actor) (domain.ListBillsResponse, error) {
	bills, err := s.repo.ListByUID(ctx, s.db, actor.UID)
	if err != nil {
		return domain.ListBillsResponse{}, err
	}
	return domain.ListBillsResponse{Bills: bills}, nil
}

// ListScoped returns every bill the actor is privileged to review: all of
// them for a global admin, the allowed posts for a post admin.
func (s *Service) ListScoped(ctx context.Context, actor domain.Actor) (domain.ListBillsResponse, error) {
	switch {
	case actor.Admin:
		bills, err := s.repo.ListAll(ctx, s.db)
		if err != nil {
			return domain.ListBillsResponse{}, err
		}
		return domain.ListBillsResponse{Bills: bills}, nil
	case len(actor.AllowedPosts) > 0:
		bills, err := s.repo.ListByPosts(ctx, s.db, actor.AllowedPosts)
		if err != nil {
			return domain.ListBillsResponse{}, err
		}
		return domain.ListBillsResponse{Bills: bills}, nil
	default:
		return domain.ListBillsResponse{}, domain.ErrForbidden
	}
}

func (s *Service) SetPaid(ctx context.Context, actor domain.Actor, id string, paid bool) (domain.Bill, error) {
	return s.setStatus(ctx, actor, id, "paid", paid)
}

func (s *Service) SetBooked(ctx context.Context, actor domain.Actor, id string, booked bool) (domain.Bill, error) {
	return s.setStatus(ctx, actor, id, "booked", booked)
}

func (s *Service) setStatus(ctx context.Context, actor domain.Actor, id, column string, value bool) (domain.Bill, error) {
	bill, err := s.findBill(ctx, id)
	if err != nil {
		return domain.Bill{}, err
	}

	caps := domain.ResolveCapabilities(actor, *bill)
	if !caps.CanEditStatus {
		return domain.Bill{}, domain.ErrForbidden
	}

	if err := s.repo.UpdateStatus(ctx, s.db, bill.ID, column, value); err != nil {
		return domain.Bill{}, err
	}

	switch column {
	case "paid":
		bill.Paid = value
	case "booked":
		bill.Booked = value
	}
	return *bill, nil
}

func (s *Service) Delete(ctx context.Context, actor domain.Actor, id string) error {
	bill, err := s.findBill(ctx, id)
	if err != nil {
		return err
	}

	caps := domain.ResolveCapabilities(actor, *bill)
	ownUnpaid := bill.UID == actor.UID && !bill.Paid
	if !caps.CanDelete && !ownUnpaid {
		return domain.ErrForbidden
	}

	// Remove the stored asset first; a storage failure is logged but does
	// not keep the row alive.
	if bill.Image != "" {
		if err := s.receipts.Delete(bill.Image); err != nil {
			s.log.Warn("receipt not removed on bill delete",
				zap.String("key", bill.Image), zap.Error(err))
		}
	}

	return s.repo.Delete(ctx, s.db, bill.ID)
}

func (s *Service) editableBill(ctx context.Context, actor domain.Actor, id string) (*domain.Bill, error) {
	bill, err := s.findBill(ctx, id)
	if err != nil {
		return nil, err
	}
	if bill.UID != actor.UID && !actor.Admin {
		return nil, domain.ErrForbidden
	}
	if bill.Paid {
		return nil, domain.ErrBillPaid
	}
	return bill, nil
}

func (s *Service) findBill(ctx context.Context, id string) (*domain.Bill, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return nil, domain.ErrInvalidID
	}
	bill, err := s.repo.FindByID(ctx, s.db, parsed)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, domain.ErrNotFound
	}
	return bill, nil
}

func visible(actor domain.Actor, bill domain.Bill) bool {
	if bill.UID == actor.UID || actor.Admin {
		return true
	}
	for _, post := range actor.AllowedPosts {
		if post == bill.Post {
			return true
		}
	}
	return false
}

func validateContent(name, post string, amount int64, paymentMethod, iban string) error {
	if strings.TrimSpace(name) == "" {
		return domain.ErrInvalidName
	}
	if !domain.ValidPost(post) {
		return domain.ErrInvalidPost
	}
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}
	if !domain.ValidPaymentMethod(paymentMethod) {
		return domain.ErrInvalidPaymentMethod
	}
	if paymentMethod == domain.PaymentMethodPersonal && strings.TrimSpace(iban) == "" {
		return domain.ErrMissingIBAN
	}
	return nil
}

func receiptExt(name string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", domain.ErrMissingReceipt
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if !domain.ValidReceiptExt(ext) {
		return "", domain.ErrUnsupportedReceiptType
	}
	if ext == "jpeg" {
		ext = "jpg"
	}
	return ext, nil
}
