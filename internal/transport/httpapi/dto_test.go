package httpapi

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextField_Unmarshal(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`"abc"`, "abc"},
		{`""`, ""},
		{`"  "`, "  "},
		{`null`, ""},
		{`false`, ""},
		{`true`, "true"},
		{`0`, ""},
		{`0.0`, ""},
		{`5550101`, "5550101"},
		{`-12.5`, "-12.5"},
	}

	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			var field textField
			require.NoError(t, json.Unmarshal([]byte(tc.raw), &field))
			assert.Equal(t, tc.want, string(field))
		})
	}
}

func TestTextField_RejectsCompositeValues(t *testing.T) {
	for _, raw := range []string{`{}`, `[1,2]`} {
		var field textField
		assert.Error(t, json.Unmarshal([]byte(raw), &field), raw)
	}
}

func TestPedidoResponse_NullOptionalFields(t *testing.T) {
	var req createPedidoRequest
	require.NoError(t, json.Unmarshal([]byte(`{"id":"p-1","fecha":"05/03/2024","hora":"12:30","telefono":1,"nombre":"Ana","modalidad":"retiro","productos":"x"}`), &req))

	p, err := req.toInput().Build()
	require.NoError(t, err)

	data, err := json.Marshal(newPedidoResponse(p))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"p-1","fecha":"05/03/2024","hora":"12:30:00","telefono":"1","nombre":"Ana","direccion":null,"modalidad":"retiro","productos":"x","estado":null}`, string(data))
}
