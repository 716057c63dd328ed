package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	billdomain "github.com/vtk-it/declaro/internal/bill/domain"
	"github.com/vtk-it/declaro/internal/clock"
	"github.com/vtk-it/declaro/internal/profile/domain"
	"github.com/vtk-it/declaro/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLen = 8

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("profile.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Signup(ctx context.Context, req domain.SignupRequest) (domain.Profile, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !validEmail(email) {
		return domain.Profile{}, domain.ErrInvalidEmail
	}
	if len(req.Password) < minPasswordLen {
		return domain.Profile{}, domain.ErrInvalidPassword
	}
	if req.Post != "" && !billdomain.ValidPost(req.Post) {
		return domain.Profile{}, domain.ErrInvalidPost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.Profile{}, err
	}

	profile := domain.Profile{
		ID:           s.genID.Generate(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(req.Name),
		Post:         req.Post,
		IBAN:         strings.TrimSpace(req.IBAN),
		CreatedAt:    s.clock.Now(),
	}
	if err := s.repo.Insert(ctx, s.db, &profile); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Profile{}, domain.ErrEmailTaken
		}
		return domain.Profile{}, err
	}

	s.log.Info("profile created", zap.String("profile_id", profile.ID.String()))
	return profile, nil
}

func (s *Service) Authenticate(ctx context.Context, email, password string) (domain.Profile, error) {
	profile, err := s.repo.FindByEmail(ctx, s.db, email)
	if err != nil {
		return domain.Profile{}, err
	}
	if profile == nil {
		return domain.Profile{}, domain.ErrBadCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)) != nil {
		return domain.Profile{}, domain.ErrBadCredentials
	}
	return *profile, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (domain.Profile, error) {
	profile, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Profile{}, err
	}
	if profile == nil {
		return domain.Profile{}, domain.ErrNotFound
	}
	return *profile, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Profile, error) {
	return s.repo.List(ctx, s.db)
}

func (s *Service) Update(ctx context.Context, req domain.UpdateProfileRequest) (domain.Profile, error) {
	profile, err := s.repo.FindByID(ctx, s.db, req.ID)
	if err != nil {
		return domain.Profile{}, err
	}
	if profile == nil {
		return domain.Profile{}, domain.ErrNotFound
	}
	if req.Post != "" && !billdomain.ValidPost(req.Post) {
		return domain.Profile{}, domain.ErrInvalidPost
	}

	profile.Name = strings.TrimSpace(req.Name)
	profile.Post = req.Post
	profile.IBAN = strings.TrimSpace(req.IBAN)
	if err := s.repo.Update(ctx, s.db, profile); err != nil {
		return domain.Profile{}, err
	}
	return *profile, nil
}

func (s *Service) SetPrivileges(ctx context.Context, req domain.SetPrivilegesRequest) (domain.Profile, error) {
	profile, err := s.repo.FindByID(ctx, s.db, req.ID)
	if err != nil {
		return domain.Profile{}, err
	}
	if profile == nil {
		return domain.Profile{}, domain.ErrNotFound
	}
	for _, post := range req.AllowedPosts {
		if !billdomain.ValidPost(post) {
			return domain.Profile{}, domain.ErrInvalidAllowedPost
		}
	}

	profile.Admin = req.Admin
	profile.AllowedPosts = req.AllowedPosts
	if err := s.repo.Update(ctx, s.db, profile); err != nil {
		return domain.Profile{}, err
	}

	s.log.Info("privileges changed",
		zap.String("profile_id", profile.ID.String()),
		zap.Bool("admin", profile.Admin),
		zap.Strings("allowed_posts", profile.AllowedPosts))
	return *profile, nil
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 {
		return false
	}
	return strings.Contains(email[at+1:], ".")
}
