package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
)

const maxBodyBytes = 1 << 20

func (h *Handler) root(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// health не обращается к БД: процесс жив, даже если хранилище недоступно.
func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (h *Handler) dbProbe(w http.ResponseWriter, r *http.Request) {
	if h.datastore == nil {
		writeJSON(w, http.StatusInternalServerError, dbErrorResponse{OK: false, Error: msgDBNotConfigured})
		return
	}

	value, err := h.datastore.Probe(r.Context())
	if err != nil {
		requestLogger(r).WithError(err).Error("db probe failed")
		writeJSON(w, http.StatusInternalServerError, dbErrorResponse{OK: false, Error: msgDBProbeFailed})
		return
	}
	writeJSON(w, http.StatusOK, dbProbeResponse{OK: true, DB: value})
}

func (h *Handler) setup(w http.ResponseWriter, r *http.Request) {
	if h.datastore == nil {
		writeJSON(w, http.StatusInternalServerError, dbErrorResponse{OK: false, Error: msgDBNotConfigured})
		return
	}

	if err := h.datastore.EnsureSchema(r.Context()); err != nil {
		requestLogger(r).WithError(err).Error("schema setup failed")
		writeJSON(w, http.StatusInternalServerError, dbErrorResponse{OK: false, Error: msgSetupFailed})
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (h *Handler) listPedidos(w http.ResponseWriter, r *http.Request) {
	pedidos, err := h.service.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err, msgListFailed)
		return
	}
	writeJSON(w, http.StatusOK, newPedidoListResponse(pedidos))
}

func (h *Handler) getPedido(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	p, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, msgGetFailed)
		return
	}
	writeJSON(w, http.StatusOK, pedidoRowResponse{OK: true, Row: newPedidoResponse(p)})
}

func (h *Handler) createPedido(w http.ResponseWriter, r *http.Request) {
	var req createPedidoRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.service.Create(r.Context(), req.toInput())
	if err != nil {
		writeServiceError(w, r, err, msgCreateFailed)
		return
	}
	writeJSON(w, http.StatusOK, createPedidoResponse{OK: true, ID: result.ID, Inserted: result.Inserted})
}

func (h *Handler) updateEstado(w http.ResponseWriter, r *http.Request) {
	var req updateEstadoRequest
	if !decodeBody(w, r, &req) {
		return
	}

	id := mux.Vars(r)["id"]
	p, err := h.service.UpdateStatus(r.Context(), id, string(req.Estado))
	if err != nil {
		writeServiceError(w, r, err, msgUpdateFailed)
		return
	}
	writeJSON(w, http.StatusOK, pedidoRowResponse{OK: true, Row: newPedidoResponse(p)})
}

// decodeBody читает JSON-тело. Пустое тело равносильно пустому объекту.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		requestLogger(r).WithError(err).Debug("invalid request body")
		writeError(w, http.StatusBadRequest, msgInvalidJSON)
		return false
	}
	return true
}
