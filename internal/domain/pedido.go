package domain

// Pedido — заказ, единственная сохраняемая сущность сервиса.
type Pedido struct {
	ID       string
	Fecha    Fecha
	Hora     Hora
	Telefono string
	Nombre   string
	// Direccion необязательна; пустая строка хранится как NULL.
	Direccion string
	// Modalidad — способ получения (retiro, delivery и т.п.).
	Modalidad string
	Productos string
	// Estado — свободный статус заказа; переходы не проверяются.
	Estado string
}

// PedidoDraft — сырые данные нового заказа в том виде, в каком их прислал клиент.
type PedidoDraft struct {
	ID        string
	Fecha     string
	Hora      string
	Telefono  string
	Nombre    string
	Direccion string
	Modalidad string
	Productos string
	Estado    string
}

// RequiredFields перечисляет обязательные поля в порядке проверки.
var RequiredFields = []string{"id", "fecha", "hora", "telefono", "nombre", "modalidad", "productos"}

// MissingFields возвращает имена обязательных полей, оставшихся пустыми.
func (d PedidoDraft) MissingFields() []string {
	values := map[string]string{
		"id":        d.ID,
		"fecha":     d.Fecha,
		"hora":      d.Hora,
		"telefono":  d.Telefono,
		"nombre":    d.Nombre,
		"modalidad": d.Modalidad,
		"productos": d.Productos,
	}

	var missing []string
	for _, field := range RequiredFields {
		if values[field] == "" {
			missing = append(missing, field)
		}
	}
	return missing
}

// Build проверяет черновик и превращает его в Pedido.
// Возвращает *ValidationError, если обязательные поля пусты или дата/время не разбираются.
func (d PedidoDraft) Build() (Pedido, error) {
	if missing := d.MissingFields(); len(missing) > 0 {
		return Pedido{}, NewValidationError(ErrFieldsRequired, missing...)
	}

	fecha, err := ParseFecha(d.Fecha)
	if err != nil {
		return Pedido{}, NewValidationError(ErrFechaInvalid, "fecha")
	}
	hora, err := ParseHora(d.Hora)
	if err != nil {
		return Pedido{}, NewValidationError(ErrHoraInvalid, "hora")
	}

	return Pedido{
		ID:        d.ID,
		Fecha:     fecha,
		Hora:      hora,
		Telefono:  d.Telefono,
		Nombre:    d.Nombre,
		Direccion: d.Direccion,
		Modalidad: d.Modalidad,
		Productos: d.Productos,
		Estado:    d.Estado,
	}, nil
}

// NewerFirst задаёт порядок выдачи списка: fecha DESC, затем hora DESC.
// Для детерминизма при полном совпадении сравниваются идентификаторы.
func NewerFirst(a, b Pedido) int {
	if c := b.Fecha.Compare(a.Fecha); c != 0 {
		return c
	}
	if c := b.Hora.Compare(a.Hora); c != 0 {
		return c
	}
	switch {
	case a.ID > b.ID:
		return -1
	case a.ID < b.ID:
		return 1
	default:
		return 0
	}
}
