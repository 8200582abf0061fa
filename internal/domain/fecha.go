package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	// FechaLayout — формат даты заказа во входных и выходных данных (DD/MM/YYYY).
	FechaLayout = "02/01/2006"
	// HoraLayout — формат времени заказа (HH:MM:SS).
	HoraLayout = "15:04:05"

	// Разбор допускает день/месяц без ведущего нуля, как это делает to_date в PostgreSQL.
	fechaParseLayout = "2/1/2006"
	horaParseLayout  = "15:04:05"
	horaShortLayout  = "15:04"

	secondsPerDay = 24 * 60 * 60
)

// Fecha — календарная дата без времени и часового пояса.
type Fecha struct {
	t time.Time
}

// NewFecha собирает дату из компонентов. Значения нормализуются так же, как в time.Date.
func NewFecha(year int, month time.Month, day int) Fecha {
	return Fecha{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseFecha разбирает дату в формате DD/MM/YYYY.
func ParseFecha(s string) (Fecha, error) {
	t, err := time.Parse(fechaParseLayout, strings.TrimSpace(s))
	if err != nil {
		return Fecha{}, fmt.Errorf("%w: %q", ErrFechaInvalid, s)
	}
	return Fecha{t: t}, nil
}

// IsZero сообщает, что дата не задана.
func (f Fecha) IsZero() bool { return f.t.IsZero() }

// Time возвращает дату как полночь UTC.
func (f Fecha) Time() time.Time { return f.t }

// Compare возвращает -1, 0 или +1.
func (f Fecha) Compare(other Fecha) int { return f.t.Compare(other.t) }

func (f Fecha) String() string {
	if f.IsZero() {
		return ""
	}
	return f.t.Format(FechaLayout)
}

// MarshalJSON сериализует дату в DD/MM/YYYY.
func (f Fecha) MarshalJSON() ([]byte, error) {
	if f.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(f.String())
}

// UnmarshalJSON принимает строку DD/MM/YYYY или null.
func (f *Fecha) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = Fecha{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %s", ErrFechaInvalid, string(data))
	}
	parsed, err := ParseFecha(raw)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Hora — время суток с точностью до секунды.
type Hora struct {
	seconds int
	set     bool
}

// NewHora собирает время из часов, минут и секунд.
func NewHora(hour, minute, second int) (Hora, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 || second < 0 || second > 59 {
		return Hora{}, fmt.Errorf("%w: %02d:%02d:%02d", ErrHoraInvalid, hour, minute, second)
	}
	return Hora{seconds: hour*3600 + minute*60 + second, set: true}, nil
}

// ParseHora разбирает время в формате HH:MM:SS. Форма HH:MM тоже принимается,
// поскольку её принимает и приведение ::time в PostgreSQL.
func ParseHora(s string) (Hora, error) {
	value := strings.TrimSpace(s)
	t, err := time.Parse(horaParseLayout, value)
	if err != nil {
		t, err = time.Parse(horaShortLayout, value)
	}
	if err != nil {
		return Hora{}, fmt.Errorf("%w: %q", ErrHoraInvalid, s)
	}
	return NewHora(t.Hour(), t.Minute(), t.Second())
}

// IsZero сообщает, что время не задано. Полночь (00:00:00) заданным временем считается.
func (h Hora) IsZero() bool { return !h.set }

// Seconds возвращает количество секунд от полуночи.
func (h Hora) Seconds() int { return h.seconds % secondsPerDay }

// Compare возвращает -1, 0 или +1.
func (h Hora) Compare(other Hora) int {
	switch {
	case h.Seconds() < other.Seconds():
		return -1
	case h.Seconds() > other.Seconds():
		return 1
	default:
		return 0
	}
}

func (h Hora) String() string {
	if h.IsZero() {
		return ""
	}
	s := h.Seconds()
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s%3600)/60, s%60)
}

// MarshalJSON сериализует время в HH:MM:SS.
func (h Hora) MarshalJSON() ([]byte, error) {
	if h.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(h.String())
}

// UnmarshalJSON принимает строку HH:MM:SS или null.
func (h *Hora) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*h = Hora{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %s", ErrHoraInvalid, string(data))
	}
	parsed, err := ParseHora(raw)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
