// Package receipt da formato al ticket de un pedido cerrado.
package receipt

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Voldziu/ToCoZwykle/internal/domain/entity"
)

// Width ancho en columnas de la impresora del kiosko.
const Width = 40

// Title cabecera del ticket.
const Title = "TO CO ZWYKLE"

// Currency moneda de los precios del catálogo.
const Currency = "PLN"

// PDFRenderer genera la versión PDF del ticket.
type PDFRenderer interface {
	RenderPDF(ctx context.Context, r *entity.Receipt) ([]byte, error)
}

// FormatText devuelve el ticket en texto de ancho fijo, una línea por producto.
func FormatText(r *entity.Receipt) string {
	rule := strings.Repeat("=", Width)
	thin := strings.Repeat("-", Width)

	var b strings.Builder
	line := func(s string) {
		b.WriteString(s)
		b.WriteByte('\n')
	}

	line(rule)
	line(center(Title))
	line(rule)
	line(columns("Ticket", shortID(r.ID)))
	line(columns("Tarjeta", r.CardID))
	line(columns("Fecha", r.CreatedAt.Format("2006-01-02 15:04")))
	line(thin)
	for _, l := range r.Lines {
		line(columns(fmt.Sprintf("%d x %s", l.Quantity, l.Name), l.Subtotal.StringFixed(2)))
		if l.Quantity > 1 {
			line("    @ " + l.UnitPrice.StringFixed(2))
		}
	}
	line(thin)
	line(columns("TOTAL", r.Total.StringFixed(2)+" "+Currency))
	line(rule)
	line(center(r.ID))
	line(center("Gracias por su pedido"))
	return b.String()
}

// columns alinea left a la izquierda y right a la derecha; recorta left si no caben.
func columns(left, right string) string {
	rr := utf8.RuneCountInString(right)
	maxLeft := Width - rr - 1
	if maxLeft < 0 {
		maxLeft = 0
	}
	left = truncate(left, maxLeft)
	pad := Width - utf8.RuneCountInString(left) - rr
	if pad < 1 {
		pad = 1
	}
	return left + strings.Repeat(" ", pad) + right
}

func center(s string) string {
	s = truncate(s, Width)
	pad := (Width - utf8.RuneCountInString(s)) / 2
	return strings.Repeat(" ", pad) + s
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func shortID(id string) string {
	return truncate(id, 8)
}
