package report

import (
	"context"
	"fmt"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	marotocfg "github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/vtk-it/declaro/internal/bill/domain"
)

// Exporter renders a bookkeeping overview of a bill collection as a tabular
// PDF, grouped the way the treasurer reads it: one line per bill with the
// outstanding total at the bottom.
type Exporter struct{}

func NewExporter() *Exporter {
	return &Exporter{}
}

func (e *Exporter) Export(ctx context.Context, bills []domain.Bill) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := marotocfg.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(8, "Declarations overview", props.Text{
			Size:  16,
			Style: fontstyle.Bold,
		}),
		text.NewCol(4, time.Now().Format("02/01/2006"), props.Text{
			Size:  9,
			Align: align.Right,
			Top:   4,
		}),
	)

	m.AddRow(8,
		text.NewCol(2, "Date", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, "Name", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Post", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Activity", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(1, "Paid", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Center}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	var total, open int64
	for _, b := range bills {
		date := ""
		if b.Date != nil {
			date = b.Date.Format("02/01/2006")
		}
		paid := "no"
		if b.Paid {
			paid = "yes"
		} else {
			open += b.Amount
		}
		total += b.Amount

		m.AddRow(7,
			text.NewCol(2, date, props.Text{Size: 8}),
			text.NewCol(3, b.Name, props.Text{Size: 8}),
			text.NewCol(2, b.Post, props.Text{Size: 8}),
			text.NewCol(2, b.Activity, props.Text{Size: 8}),
			text.NewCol(1, paid, props.Text{Size: 8, Align: align.Center}),
			text.NewCol(2, euro(b.Amount), props.Text{Size: 8, Align: align.Right}),
		)
	}

	m.AddRow(10,
		col.New(7),
		text.NewCol(3, "Total", props.Text{Size: 9, Top: 3}),
		text.NewCol(2, euro(total), props.Text{Size: 9, Align: align.Right, Top: 3}),
	)
	m.AddRow(8,
		col.New(7),
		text.NewCol(3, "Outstanding", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, euro(open), props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate overview: %w", err)
	}
	return doc.GetBytes(), nil
}

func euro(cents int64) string {
	return fmt.Sprintf("€ %.2f", float64(cents)/100)
}
