package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation — общий признак ошибки входных данных (клиентская ошибка).
	ErrValidation = errors.New("validation failed")
	// ErrFieldsRequired — не заполнены обязательные поля заказа.
	ErrFieldsRequired = errors.New("required fields are missing")
	// ErrEstadoRequired — пустой estado при обновлении статуса.
	ErrEstadoRequired = errors.New("estado is required")
	// ErrFechaInvalid — дата не соответствует формату DD/MM/YYYY.
	ErrFechaInvalid = errors.New("fecha must match DD/MM/YYYY")
	// ErrHoraInvalid — время не соответствует формату HH:MM:SS.
	ErrHoraInvalid = errors.New("hora must match HH:MM:SS")
	// ErrPedidoNotFound возвращается, если заказ не найден в репозитории.
	ErrPedidoNotFound = errors.New("pedido not found")
	// ErrPersistence — ошибка хранилища (недоступность БД, ошибка запроса).
	ErrPersistence = errors.New("persistence failure")
	// ErrStorageUnavailable — хранилище отключено после неудачной проверки при старте.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ValidationError описывает отклонённый ввод: причину и список полей.
type ValidationError struct {
	Reason error
	Fields []string
}

func (e *ValidationError) Error() string {
	reason := "invalid input"
	if e.Reason != nil {
		reason = e.Reason.Error()
	}
	if len(e.Fields) == 0 {
		return reason
	}
	return fmt.Sprintf("%s: %s", reason, strings.Join(e.Fields, ", "))
}

// Is позволяет проверять любую ValidationError через errors.Is(err, ErrValidation).
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) Unwrap() error {
	return e.Reason
}

// NewValidationError создаёт ошибку валидации с причиной и полями.
func NewValidationError(reason error, fields ...string) *ValidationError {
	return &ValidationError{Reason: reason, Fields: fields}
}

// IsValidation проверяет, является ли ошибка клиентской ошибкой валидации.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNotFound проверяет, что заказ не найден.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPedidoNotFound)
}

// WrapPersistence помечает ошибку хранилища как ErrPersistence, сохраняя исходную причину.
// ErrPedidoNotFound и ErrStorageUnavailable пропускаются без изменений.
func WrapPersistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrPedidoNotFound) || errors.Is(err, ErrStorageUnavailable) || errors.Is(err, ErrPersistence) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}
