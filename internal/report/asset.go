package report

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedAssetType reports a receipt whose extension is outside
	// the set this service can place on a report.
	ErrUnsupportedAssetType = errors.New("unsupported receipt asset type")

	// ErrEmptyAsset reports receipt bytes that never arrived from storage.
	ErrEmptyAsset = errors.New("empty receipt asset")
)

// ImageFormat enumerates the embeddable receipt image encodings.
type ImageFormat string

const (
	FormatPNG  ImageFormat = "png"
	FormatJPEG ImageFormat = "jpg"
)

// ReceiptAsset is a receipt classified once, at fetch time. A receipt is
// either an image stamped onto the report page or a PDF whose pages are
// appended behind it. Nothing downstream inspects extensions again.
type ReceiptAsset interface {
	receiptAsset()
}

// ImageAsset is a PNG or JPEG receipt embedded onto the report page.
type ImageAsset struct {
	Format ImageFormat
	Data   []byte
}

// MergeablePDF is a PDF receipt whose pages are appended to the report.
type MergeablePDF struct {
	Data []byte
}

func (ImageAsset) receiptAsset()   {}
func (MergeablePDF) receiptAsset() {}

// DetectAsset classifies raw receipt bytes by their declared extension.
func DetectAsset(ext string, data []byte) (ReceiptAsset, error) {
	if len(data) == 0 {
		return nil, ErrEmptyAsset
	}
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "png":
		return ImageAsset{Format: FormatPNG, Data: data}, nil
	case "jpg", "jpeg":
		return ImageAsset{Format: FormatJPEG, Data: data}, nil
	case "pdf":
		return MergeablePDF{Data: data}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAssetType, ext)
	}
}
