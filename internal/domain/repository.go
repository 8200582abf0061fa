package domain

import "context"

// PedidoRepository описывает требования к хранилищу заказов.
// Каждая операция выполняется одним атомарным выражением на стороне хранилища.
type PedidoRepository interface {
	// List возвращает последние заказы (fecha DESC, hora DESC), не больше limit.
	List(ctx context.Context, limit int) ([]Pedido, error)
	// Get возвращает заказ по идентификатору или ErrPedidoNotFound, если его нет.
	Get(ctx context.Context, id string) (Pedido, error)
	// Insert сохраняет новый заказ. Если запись с таким ID уже есть, ничего не меняет
	// и возвращает inserted=false без ошибки.
	Insert(ctx context.Context, pedido Pedido) (inserted bool, err error)
	// UpdateEstado меняет estado и возвращает обновлённую запись или ErrPedidoNotFound.
	UpdateEstado(ctx context.Context, id, estado string) (Pedido, error)
}
