package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	log "github.com/sirupsen/logrus"
)

// DescribeError раскладывает ошибку драйвера на поля для серверного лога.
// Для *pgconn.PgError добавляются code, detail, hint и where.
func DescribeError(err error) log.Fields {
	if err == nil {
		return log.Fields{}
	}

	fields := log.Fields{"message": err.Error()}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		fields["message"] = pgErr.Message
		fields["code"] = pgErr.Code
		if pgErr.Detail != "" {
			fields["detail"] = pgErr.Detail
		}
		if pgErr.Hint != "" {
			fields["hint"] = pgErr.Hint
		}
		if pgErr.Where != "" {
			fields["where"] = pgErr.Where
		}
	}
	return fields
}
