// Package pdf genera la versión PDF del ticket del kiosko con Maroto v2.
//
// Layout (ancho de rollo de 80 mm):
//
//	┌──────────────────────────────┐
//	│  TO CO ZWYKLE  │ Ticket+Fecha │
//	│  Tarjeta                      │
//	│  Cant | Producto | Subtotal   │
//	│  TOTAL                        │
//	│  QR del ticket                │
//	└──────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/Voldziu/ToCoZwykle/internal/application/receipt"
	"github.com/Voldziu/ToCoZwykle/internal/domain/entity"
)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

var _ receipt.PDFRenderer = (*ReceiptRenderer)(nil)

// ReceiptRenderer implementa receipt.PDFRenderer.
type ReceiptRenderer struct{}

// NewReceiptRenderer construye el generador.
func NewReceiptRenderer() *ReceiptRenderer { return &ReceiptRenderer{} }

// RenderPDF genera el PDF del ticket y devuelve sus bytes.
func (g *ReceiptRenderer) RenderPDF(_ context.Context, r *entity.Receipt) ([]byte, error) {
	cfg := config.NewBuilder().
		WithDimensions(80, 200).
		WithLeftMargin(4).WithRightMargin(4).
		WithTopMargin(4).WithBottomMargin(4).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 8}).
		WithTitle("Ticket "+r.ID, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(r))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.4}))
	m.AddRows(tableHeaderRow())
	for _, dr := range detailRows(r.Lines) {
		m.AddRows(dr)
	}
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalRow(r))
	m.AddRows(line.NewRow(2))
	m.AddRows(qrRow(r))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar ticket: %w", err)
	}
	return doc.GetBytes(), nil
}

// headerRow: nombre del kiosko (izq) y ticket + fecha (der).
func headerRow(r *entity.Receipt) core.Row {
	return row.New(16).Add(
		col.New(6).Add(
			text.New(receipt.Title, props.Text{Style: fontstyle.Bold, Size: 11, Color: colorPrimary, Top: 1}),
			text.New("Tarjeta: "+r.CardID, props.Text{Size: 7, Top: 9, Color: colorGray}),
		),
		col.New(6).Add(
			text.New("Ticket "+shortID(r.ID), props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right, Top: 1}),
			text.New(r.CreatedAt.Format("02/01/2006 15:04"), props.Text{Size: 7, Align: align.Right, Top: 9, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{Style: fontstyle.Bold, Size: 7, Align: a, Top: 1}))
	}
	return row.New(6).Add(
		h("Cant.", 2, align.Center),
		h("Producto", 6, align.Left),
		h("Subtotal", 4, align.Right),
	)
}

func detailRows(lines []entity.ReceiptLine) []core.Row {
	out := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		out = append(out, row.New(5).Add(
			col.New(2).Add(text.New(fmt.Sprintf("%d", l.Quantity), props.Text{Size: 7, Align: align.Center})),
			col.New(6).Add(text.New(l.Name, props.Text{Size: 7, Align: align.Left})),
			col.New(4).Add(text.New(l.Subtotal.StringFixed(2), props.Text{Size: 7, Align: align.Right})),
		))
	}
	return out
}

func totalRow(r *entity.Receipt) core.Row {
	return row.New(8).Add(
		col.New(6).Add(text.New("TOTAL", props.Text{Style: fontstyle.Bold, Size: 9, Color: colorPrimary, Top: 1})),
		col.New(6).Add(text.New(r.Total.StringFixed(2)+" "+receipt.Currency, props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Color: colorPrimary, Top: 1,
		})),
	)
}

// qrRow: QR con el ID del ticket para recogerlo en mostrador.
func qrRow(r *entity.Receipt) core.Row {
	return row.New(30).Add(
		col.New(12).Add(code.NewQr(r.ID, props.Rect{Percent: 90, Center: true})),
	)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
