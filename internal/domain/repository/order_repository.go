package repository

import (
	"context"

	"github.com/Voldziu/ToCoZwykle/internal/domain/entity"
)

// OrderRepository persiste los pedidos cerrados (cabecera + líneas en una transacción).
type OrderRepository interface {
	RecordOrder(ctx context.Context, receipt *entity.Receipt) error
}
