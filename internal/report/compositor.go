package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"time"

	_ "image/jpeg"
	_ "image/png"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/vtk-it/declaro/internal/bill/domain"
	"github.com/vtk-it/declaro/internal/config"
	"go.uber.org/zap"
)

// ErrTemplateLoad reports a missing or unreadable declaration template.
// This is an environment problem, not a per-request one.
var ErrTemplateLoad = errors.New("report template unavailable")

const reportDateLayout = "02/01/2006"

// Compositor stamps one bill onto the declaration template and attaches its
// receipt. Composition is all or nothing: the caller receives a fully
// serialized document or an error, never a partial buffer.
type Compositor struct {
	template []byte
	layout   *LayoutHolder
	log      *zap.Logger
}

func NewCompositor(cfg config.Config, layout *LayoutHolder, log *zap.Logger) (*Compositor, error) {
	tmpl, err := os.ReadFile(cfg.ReportTemplatePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplateLoad, err)
	}
	if _, err := api.ReadContext(bytes.NewReader(tmpl), model.NewDefaultConfiguration()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplateLoad, err)
	}
	return &Compositor{
		template: tmpl,
		layout:   layout,
		log:      log.Named("report.compositor"),
	}, nil
}

// Compose produces the print-ready report for a bill. Image receipts are
// placed on the template page, PDF receipts are appended page for page
// behind it.
func (c *Compositor) Compose(ctx context.Context, b domain.Bill, asset ReceiptAsset, rotate bool) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	layout := c.layout.Get()
	wms, err := c.textStamps(layout, b)
	if err != nil {
		return nil, err
	}

	var receiptPDF []byte
	switch a := asset.(type) {
	case ImageAsset:
		wm, err := imageStamp(layout, a.Data, rotate)
		if err != nil {
			return nil, err
		}
		wms = append(wms, wm)
	case MergeablePDF:
		receiptPDF = a.Data
	default:
		return nil, ErrUnsupportedAssetType
	}

	conf := model.NewDefaultConfiguration()
	var stamped bytes.Buffer
	err = api.AddWatermarksSliceMap(bytes.NewReader(c.template), &stamped, map[int][]*model.Watermark{1: wms}, conf)
	if err != nil {
		return nil, fmt.Errorf("stamp report page: %w", err)
	}

	if receiptPDF == nil {
		return stamped.Bytes(), nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var merged bytes.Buffer
	readers := []io.ReadSeeker{bytes.NewReader(stamped.Bytes()), bytes.NewReader(receiptPDF)}
	if err := api.MergeRaw(readers, &merged, false, conf); err != nil {
		return nil, fmt.Errorf("append receipt pages: %w", err)
	}
	return merged.Bytes(), nil
}

func (c *Compositor) textStamps(l Layout, b domain.Bill) ([]*model.Watermark, error) {
	year := time.Now()
	if b.Date != nil {
		year = *b.Date
	}
	date := ""
	if b.Date != nil {
		date = b.Date.Format(reportDateLayout)
	}

	type stamp struct {
		text string
		at   Point
	}
	fields := []stamp{
		{AcademicYearOf(year).Short(), l.YearTag},
		{b.Activity, l.Activity},
		{b.Desc, l.Desc},
		{b.Post, l.Post},
		{b.Name, l.Name},
		{date, l.Date},
	}
	if b.PaymentMethod == domain.PaymentMethodPersonal {
		fields = append(fields, stamp{"X", l.MarkPersonal}, stamp{b.IBAN, l.IBAN})
	} else {
		fields = append(fields, stamp{"X", l.MarkVTK})
	}

	wms := make([]*model.Watermark, 0, len(fields))
	for _, f := range fields {
		if f.text == "" {
			continue
		}
		desc := fmt.Sprintf("fontname:%s, points:%g, pos:bl, off:%g %g, sc:1 abs, rot:0, fillcolor:#000000, opacity:1",
			l.FontName, l.FontSize, f.at.X, f.at.Y)
		wm, err := api.TextWatermark(f.text, desc, true, false, types.POINTS)
		if err != nil {
			return nil, fmt.Errorf("text stamp %q: %w", f.text, err)
		}
		wms = append(wms, wm)
	}
	return wms, nil
}

func imageStamp(l Layout, data []byte, rotate bool) (*model.Watermark, error) {
	dims, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode receipt image: %w", err)
	}

	p := placeImage(l, float64(dims.Width), float64(dims.Height), rotate)
	desc := fmt.Sprintf("pos:bl, off:%.2f %.2f, sc:%.4f abs, rot:%d, opacity:1",
		p.x, p.y, p.factor, p.rotation)
	return api.ImageWatermarkForReader(bytes.NewReader(data), desc, true, false, types.POINTS)
}

type placement struct {
	x, y     float64
	factor   float64
	rotation int
}

// placeImage scales a receipt to fit the layout's bounding box and centers
// it. A -90 degree rotation swaps the effective axes, so the horizontal
// centering uses the scaled height and the image hangs from the rotated top
// line instead of being centered vertically.
func placeImage(l Layout, w, h float64, rotate bool) placement {
	factor := l.BoxWidth / w
	if byHeight := l.BoxHeight / h; byHeight < factor {
		factor = byHeight
	}
	sw, sh := w*factor, h*factor

	if rotate {
		return placement{
			x:        (l.RegionWidth - sh) / 2,
			y:        l.RotatedTop,
			factor:   factor,
			rotation: -90,
		}
	}
	return placement{
		x:      (l.RegionWidth - sw) / 2,
		y:      (l.RegionHeight - sh) / 2,
		factor: factor,
	}
}
