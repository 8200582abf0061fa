package postgres

import (
	"context"
	"fmt"
)

const pedidosTableDDL = `
CREATE TABLE IF NOT EXISTS pedidos (
    id TEXT PRIMARY KEY,
    fecha DATE NOT NULL,
    hora TIME NOT NULL,
    telefono TEXT NOT NULL,
    nombre TEXT NOT NULL,
    direccion TEXT,
    modalidad TEXT NOT NULL,
    productos TEXT NOT NULL,
    estado TEXT
)`

// EnsureSchema создаёт таблицу pedidos, если её ещё нет. Существующую таблицу не трогает.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("postgres store is not initialized")
	}

	execCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := s.db.ExecContext(execCtx, pedidosTableDDL); err != nil {
		return fmt.Errorf("create pedidos table: %w", err)
	}
	return nil
}
