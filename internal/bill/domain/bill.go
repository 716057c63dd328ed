package domain

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	// PaymentMethodVTK marks a bill paid with the organization card.
	PaymentMethodVTK = "vtk"
	// PaymentMethodPersonal marks a bill advanced personally; requires an IBAN
	// for reimbursement.
	PaymentMethodPersonal = "personal"
)

// Posts is the fixed set of organizational units a bill can be booked on.
var Posts = []string{
	"Activiteiten",
	"Bedrijvenrelaties",
	"Communicatie",
	"Cursusdienst",
	"Cultuur",
	"Development",
	"Fakbar",
	"IT",
	"Onderwijs",
	"Sport",
	"Theokot",
}

func ValidPost(post string) bool {
	for _, p := range Posts {
		if p == post {
			return true
		}
	}
	return false
}

func ValidPaymentMethod(method string) bool {
	return method == PaymentMethodVTK || method == PaymentMethodPersonal
}

// ValidReceiptExt reports whether a receipt file extension (without dot,
// any case) is one of the accepted asset types.
func ValidReceiptExt(ext string) bool {
	switch strings.ToLower(ext) {
	case "png", "jpg", "jpeg", "pdf":
		return true
	default:
		return false
	}
}

// Bill is an expense claim. Amount is in currency minor units (cents).
// Once Paid is set the content fields are frozen; only Booked may still change.
type Bill struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	Name          string       `gorm:"not null" json:"name"`
	Activity      string       `gorm:"not null" json:"activity"`
	Desc          string       `gorm:"column:desc;not null" json:"desc"`
	Post          string       `gorm:"not null;index" json:"post"`
	Date          *time.Time   `json:"date,omitempty"`
	Amount        int64        `gorm:"not null" json:"amount"`
	PaymentMethod string       `gorm:"column:payment_method;not null" json:"payment_method"`
	IBAN          string       `gorm:"column:iban" json:"iban"`
	Image         string       `gorm:"not null" json:"image"`
	Paid          bool         `gorm:"not null;default:false" json:"paid"`
	Booked        bool         `gorm:"not null;default:false" json:"booked"`
	UID           string       `gorm:"column:uid;index" json:"uid"`
	CreatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// ImageExt returns the lowercase extension of the stored receipt key,
// without the leading dot.
func (b Bill) ImageExt() string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(b.Image)), ".")
}

// Actor is the already-authenticated identity a bill operation runs as.
type Actor struct {
	UID          string
	Admin        bool
	AllowedPosts []string
}

// Capabilities is the per-bill permission set resolved once per request.
type Capabilities struct {
	CanEditStatus bool
	CanDelete     bool
	IsPrivileged  bool
}

// ResolveCapabilities applies the privilege policy: global admins may do
// everything; post admins may toggle paid/booked only on bills inside their
// allowed posts; deletion stays admin-only.
func ResolveCapabilities(actor Actor, bill Bill) Capabilities {
	if actor.Admin {
		return Capabilities{CanEditStatus: true, CanDelete: true, IsPrivileged: true}
	}
	caps := Capabilities{IsPrivileged: len(actor.AllowedPosts) > 0}
	for _, post := range actor.AllowedPosts {
		if post == bill.Post {
			caps.CanEditStatus = true
			break
		}
	}
	return caps
}
