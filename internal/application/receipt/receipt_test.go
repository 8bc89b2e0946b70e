package receipt_test

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/sebdah/goldie/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/Voldziu/ToCoZwykle/internal/application/receipt"
	"github.com/Voldziu/ToCoZwykle/internal/domain/entity"
)

func line(name string, qty int, price string) entity.ReceiptLine {
	p := decimal.RequireFromString(price)
	return entity.ReceiptLine{Name: name, Quantity: qty, UnitPrice: p, Subtotal: p.Mul(decimal.NewFromInt(int64(qty)))}
}

func sample(lines ...entity.ReceiptLine) *entity.Receipt {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal)
	}
	return &entity.Receipt{
		ID:        "7f1c2e9a-0000-4000-8000-000000000001",
		CardID:    "1112223334",
		Lines:     lines,
		Total:     total,
		CreatedAt: time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC),
	}
}

func golden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestFormatText_SetDeDemo(t *testing.T) {
	r := sample(line("Cola", 2, "6.99"), line("Fries", 1, "8.49"))
	golden(t).Assert(t, "demo_set", []byte(receipt.FormatText(r)))
}

func TestFormatText_NombreLargoSeRecorta(t *testing.T) {
	r := sample(line("Chocolate Cake Deluxe Extra Large Edition", 3, "19.99"))
	out := receipt.FormatText(r)
	golden(t).Assert(t, "long_name", []byte(out))

	for _, l := range strings.Split(strings.TrimSuffix(out, "\n"), "\n") {
		assert.LessOrEqual(t, utf8.RuneCountInString(l), receipt.Width, "%q", l)
	}
}
