package domain

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("profile not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidPassword    = errors.New("password does not meet requirements")
	ErrInvalidPost        = errors.New("unknown post")
	ErrBadCredentials     = errors.New("invalid email or password")
	ErrForbidden          = errors.New("not allowed")
	ErrInvalidAllowedPost = errors.New("unknown post in allowed posts")
)

// Profile is one account in the organization. AllowedPosts grants scoped
// review privileges without making the holder a global admin.
type Profile struct {
	ID           snowflake.ID `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Email        string       `json:"email" gorm:"uniqueIndex;size:255"`
	PasswordHash string       `json:"-" gorm:"column:password_hash"`
	Name         string       `json:"name"`
	Post         string       `json:"post"`
	IBAN         string       `json:"iban" gorm:"column:iban"`
	Admin        bool         `json:"admin"`
	AllowedPosts PostList     `json:"allowed_posts" gorm:"column:allowed_posts;type:text"`
	CreatedAt    time.Time    `json:"created_at"`
}

func (Profile) TableName() string { return "profiles" }

// PostList stores a post grant list as one comma-separated text column.
type PostList []string

func (p PostList) Value() (driver.Value, error) {
	return strings.Join(p, ","), nil
}

func (p *PostList) Scan(v interface{}) error {
	switch s := v.(type) {
	case nil:
		*p = nil
	case string:
		*p = ParsePostList(s)
	case []byte:
		*p = ParsePostList(string(s))
	default:
		return fmt.Errorf("unsupported allowed_posts column type %T", v)
	}
	return nil
}

func ParsePostList(raw string) PostList {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make(PostList, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

type SignupRequest struct {
	Email    string
	Password string
	Name     string
	Post     string
	IBAN     string
}

type UpdateProfileRequest struct {
	ID   snowflake.ID
	Name string
	Post string
	IBAN string
}

// SetPrivilegesRequest is an admin-only mutation of another profile's
// privilege tier.
type SetPrivilegesRequest struct {
	ID           snowflake.ID
	Admin        bool
	AllowedPosts PostList
}

type Service interface {
	Signup(ctx context.Context, req SignupRequest) (Profile, error)
	Authenticate(ctx context.Context, email, password string) (Profile, error)
	GetByID(ctx context.Context, id snowflake.ID) (Profile, error)
	List(ctx context.Context) ([]Profile, error)
	Update(ctx context.Context, req UpdateProfileRequest) (Profile, error)
	SetPrivileges(ctx context.Context, req SetPrivilegesRequest) (Profile, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, p *Profile) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Profile, error)
	FindByEmail(ctx context.Context, db *gorm.DB, email string) (*Profile, error)
	List(ctx context.Context, db *gorm.DB) ([]Profile, error)
	Update(ctx context.Context, db *gorm.DB, p *Profile) error
}
