package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/vladislavdragonenkov/pedidos/internal/domain"
)

// pedidoRepositoryInMemory — простая in-memory реализация PedidoRepository.
type pedidoRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Pedido
}

// NewPedidoRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewPedidoRepository() domain.PedidoRepository {
	return &pedidoRepositoryInMemory{
		items: make(map[string]domain.Pedido),
	}
}

// List возвращает заказы от новых к старым, ограничивая выборку limit (если >0).
func (r *pedidoRepositoryInMemory) List(ctx context.Context, limit int) ([]domain.Pedido, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Pedido, 0, len(r.items))
	for _, pedido := range r.items {
		result = append(result, pedido)
	}
	slices.SortFunc(result, domain.NewerFirst)

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Get возвращает заказ или ErrPedidoNotFound, если его нет.
func (r *pedidoRepositoryInMemory) Get(ctx context.Context, id string) (domain.Pedido, error) {
	if err := ctx.Err(); err != nil {
		return domain.Pedido{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	pedido, ok := r.items[id]
	if !ok {
		return domain.Pedido{}, domain.ErrPedidoNotFound
	}
	return pedido, nil
}

// Insert сохраняет заказ, если ID ещё не занят; повтор не перезаписывает данные.
func (r *pedidoRepositoryInMemory) Insert(ctx context.Context, pedido domain.Pedido) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[pedido.ID]; exists {
		return false, nil
	}
	r.items[pedido.ID] = pedido
	return true, nil
}

// UpdateEstado меняет estado существующего заказа.
func (r *pedidoRepositoryInMemory) UpdateEstado(ctx context.Context, id, estado string) (domain.Pedido, error) {
	if err := ctx.Err(); err != nil {
		return domain.Pedido{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[id]
	if !ok {
		return domain.Pedido{}, domain.ErrPedidoNotFound
	}
	current.Estado = estado
	r.items[id] = current
	return current, nil
}

var _ domain.PedidoRepository = (*pedidoRepositoryInMemory)(nil)
