package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/vladislavdragonenkov/pedidos/internal/domain"
	"github.com/vladislavdragonenkov/pedidos/internal/service/pedido"
)

var errUnsupportedValue = errors.New("unsupported json value")

// textField принимает строку, число, bool или null и хранит их текстом.
// Ложные значения (пустая строка, 0, false, null) превращаются в пустую строку,
// и обязательное поле с таким значением считается незаполненным.
type textField string

func (f *textField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return errUnsupportedValue
	}

	switch data[0] {
	case 'n':
		*f = ""
		return nil
	case 't':
		*f = "true"
		return nil
	case 'f':
		*f = ""
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = textField(s)
		return nil
	case '{', '[':
		return errUnsupportedValue
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if value, err := strconv.ParseFloat(n.String(), 64); err == nil && value == 0 {
		*f = ""
		return nil
	}
	*f = textField(n.String())
	return nil
}

// createPedidoRequest — тело POST /pedidos.
type createPedidoRequest struct {
	ID        textField `json:"id"`
	Fecha     textField `json:"fecha"`
	Hora      textField `json:"hora"`
	Telefono  textField `json:"telefono"`
	Nombre    textField `json:"nombre"`
	Direccion textField `json:"direccion"`
	Modalidad textField `json:"modalidad"`
	Productos textField `json:"productos"`
	Estado    textField `json:"estado"`
}

func (r createPedidoRequest) toInput() pedido.CreateInput {
	return pedido.CreateInput{
		ID:        string(r.ID),
		Fecha:     string(r.Fecha),
		Hora:      string(r.Hora),
		Telefono:  string(r.Telefono),
		Nombre:    string(r.Nombre),
		Direccion: string(r.Direccion),
		Modalidad: string(r.Modalidad),
		Productos: string(r.Productos),
		Estado:    string(r.Estado),
	}
}

// updateEstadoRequest — тело PUT /pedidos/{id}/estado.
type updateEstadoRequest struct {
	Estado textField `json:"estado"`
}

// pedidoResponse — заказ в ответах API. Необязательные поля отдаются как null.
type pedidoResponse struct {
	ID        string       `json:"id"`
	Fecha     domain.Fecha `json:"fecha"`
	Hora      domain.Hora  `json:"hora"`
	Telefono  string       `json:"telefono"`
	Nombre    string       `json:"nombre"`
	Direccion *string      `json:"direccion"`
	Modalidad string       `json:"modalidad"`
	Productos string       `json:"productos"`
	Estado    *string      `json:"estado"`
}

func newPedidoResponse(p domain.Pedido) pedidoResponse {
	return pedidoResponse{
		ID:        p.ID,
		Fecha:     p.Fecha,
		Hora:      p.Hora,
		Telefono:  p.Telefono,
		Nombre:    p.Nombre,
		Direccion: nullable(p.Direccion),
		Modalidad: p.Modalidad,
		Productos: p.Productos,
		Estado:    nullable(p.Estado),
	}
}

func newPedidoListResponse(pedidos []domain.Pedido) []pedidoResponse {
	out := make([]pedidoResponse, 0, len(pedidos))
	for _, p := range pedidos {
		out = append(out, newPedidoResponse(p))
	}
	return out
}

func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

type pedidoRowResponse struct {
	OK  bool           `json:"ok"`
	Row pedidoResponse `json:"row"`
}

type createPedidoResponse struct {
	OK       bool   `json:"ok"`
	ID       string `json:"id"`
	Inserted bool   `json:"inserted"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

type dbProbeResponse struct {
	OK bool `json:"ok"`
	DB int  `json:"db"`
}

type dbErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

type errorResponse struct {
	Error string `json:"error"`
}
