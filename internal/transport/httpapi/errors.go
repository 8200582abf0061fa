package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/pedidos/internal/domain"
)

// Сообщения для клиента. Подробности ошибок хранилища остаются в логах.
const (
	msgFieldsRequired  = "Faltan campos obligatorios"
	msgEstadoRequired  = "Falta el campo 'estado'"
	msgFechaInvalid    = "Formato de fecha inválido (DD/MM/YYYY)"
	msgHoraInvalid     = "Formato de hora inválido (HH:MM:SS)"
	msgInvalidJSON     = "JSON inválido"
	msgNotFound        = "Pedido no encontrado"
	msgListFailed      = "Error al obtener pedidos"
	msgGetFailed       = "Error al obtener pedido"
	msgCreateFailed    = "Error al guardar pedido"
	msgUpdateFailed    = "Error al actualizar estado del pedido"
	msgDBNotConfigured = "DB no configurada"
	msgDBProbeFailed   = "Error al consultar la DB"
	msgSetupFailed     = "Error al crear la tabla pedidos"
	msgNotFoundRoute   = "Ruta no encontrada"
	msgInternal        = "Error interno"
)

// writeJSON сериализует тело ответа; ошибку записи можно только залогировать.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Debug("failed to write response body")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeServiceError переводит доменную ошибку в HTTP-ответ.
// failureMessage используется для ошибок хранилища конкретной операции.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, failureMessage string) {
	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationMessage(validationErr))
	case domain.IsNotFound(err):
		writeError(w, http.StatusNotFound, msgNotFound)
	case errors.Is(err, domain.ErrStorageUnavailable):
		writeError(w, http.StatusInternalServerError, msgDBNotConfigured)
	default:
		requestLogger(r).WithError(err).Error("request failed")
		writeError(w, http.StatusInternalServerError, failureMessage)
	}
}

func validationMessage(err *domain.ValidationError) string {
	switch {
	case errors.Is(err.Reason, domain.ErrEstadoRequired):
		return msgEstadoRequired
	case errors.Is(err.Reason, domain.ErrFechaInvalid):
		return msgFechaInvalid
	case errors.Is(err.Reason, domain.ErrHoraInvalid):
		return msgHoraInvalid
	default:
		return msgFieldsRequired
	}
}
