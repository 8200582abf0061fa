package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/pedidos/internal/domain"
)

const (
	opTimeout = 5 * time.Second

	// Дата и время читаются текстом в каноническом формате, чтобы не зависеть
	// от того, как драйвер представляет DATE и TIME.
	pedidoColumns = `
		id,
		to_char(fecha, 'DD/MM/YYYY'),
		to_char(hora, 'HH24:MI:SS'),
		telefono,
		nombre,
		direccion,
		modalidad,
		productos,
		estado`
)

type pedidoRepository struct {
	db     *sql.DB
	logger *log.Entry
}

// NewPedidoRepository создаёт PostgreSQL-реализацию PedidoRepository.
func NewPedidoRepository(store *Store, logger *log.Entry) domain.PedidoRepository {
	if logger == nil {
		logger = log.WithField("component", "postgres")
	}
	return &pedidoRepository{db: store.DB(), logger: logger}
}

func (r *pedidoRepository) List(ctx context.Context, limit int) ([]domain.Pedido, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query := `SELECT ` + pedidoColumns + `
		FROM pedidos
		ORDER BY fecha DESC, hora DESC, id DESC`

	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = r.db.QueryContext(ctx, query+" LIMIT $1", limit)
	} else {
		rows, err = r.db.QueryContext(ctx, query)
	}
	if err != nil {
		return nil, r.fail("list pedidos", err)
	}
	defer rows.Close()

	pedidos := make([]domain.Pedido, 0)
	for rows.Next() {
		pedido, err := scanPedido(rows)
		if err != nil {
			return nil, r.fail("scan pedido row", err)
		}
		pedidos = append(pedidos, pedido)
	}
	if err := rows.Err(); err != nil {
		return nil, r.fail("iterate pedido rows", err)
	}

	return pedidos, nil
}

func (r *pedidoRepository) Get(ctx context.Context, id string) (domain.Pedido, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `SELECT `+pedidoColumns+`
		FROM pedidos
		WHERE id = $1
		LIMIT 1
	`, id)

	pedido, err := scanPedido(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Pedido{}, domain.ErrPedidoNotFound
		}
		return domain.Pedido{}, r.fail("select pedido", err)
	}
	return pedido, nil
}

func (r *pedidoRepository) Insert(ctx context.Context, pedido domain.Pedido) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO pedidos (
			id, fecha, hora, telefono, nombre, direccion, modalidad, productos, estado
		) VALUES ($1, to_date($2, 'DD/MM/YYYY'), $3::time, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`,
		pedido.ID,
		pedido.Fecha.String(),
		pedido.Hora.String(),
		pedido.Telefono,
		pedido.Nombre,
		nullableText(pedido.Direccion),
		pedido.Modalidad,
		pedido.Productos,
		nullableText(pedido.Estado),
	)
	if err != nil {
		return false, r.fail("insert pedido", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, r.fail("rows affected", err)
	}
	return affected > 0, nil
}

func (r *pedidoRepository) UpdateEstado(ctx context.Context, id, estado string) (domain.Pedido, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `
		UPDATE pedidos
		SET estado = $1
		WHERE id = $2
		RETURNING `+pedidoColumns, estado, id)

	pedido, err := scanPedido(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Pedido{}, domain.ErrPedidoNotFound
		}
		return domain.Pedido{}, r.fail("update pedido estado", err)
	}
	return pedido, nil
}

// fail пишет диагностику драйвера в лог и оборачивает ошибку в ErrPersistence.
func (r *pedidoRepository) fail(op string, err error) error {
	r.logger.WithFields(DescribeError(err)).WithField("op", op).Error("postgres operation failed")
	return domain.WrapPersistence(op, err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPedido(row rowScanner) (domain.Pedido, error) {
	var (
		pedido    domain.Pedido
		fecha     string
		hora      string
		direccion sql.NullString
		estado    sql.NullString
	)
	if err := row.Scan(
		&pedido.ID, &fecha, &hora, &pedido.Telefono, &pedido.Nombre,
		&direccion, &pedido.Modalidad, &pedido.Productos, &estado,
	); err != nil {
		return domain.Pedido{}, err
	}

	var err error
	if pedido.Fecha, err = domain.ParseFecha(fecha); err != nil {
		return domain.Pedido{}, fmt.Errorf("decode fecha of %s: %w", pedido.ID, err)
	}
	if pedido.Hora, err = domain.ParseHora(hora); err != nil {
		return domain.Pedido{}, fmt.Errorf("decode hora of %s: %w", pedido.ID, err)
	}
	pedido.Direccion = direccion.String
	pedido.Estado = estado.String

	return pedido, nil
}

func nullableText(value string) any {
	if value == "" {
		return nil
	}
	return value
}

var _ domain.PedidoRepository = (*pedidoRepository)(nil)
