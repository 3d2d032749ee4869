package models

import "time"

// SyncEntity представляет единицу синхронизации между приложениями-соседями.
// Одна логическая запись имеет один ID на всех пирах; Version растет на 1
// при каждой принятой локальной мутации.
type SyncEntity struct {
	LastModified time.Time `json:"last_modified"` // LastModified время мутации (только для информации)
	Payload      Payload   `json:"payload"`       // Payload поля сущности, описанные схемой
	ID           string    `json:"id"`            // ID глобально стабильный идентификатор
	Kind         string    `json:"kind"`          // Kind тип сущности: "theme", "bookmark", ...
	SourceApp    string    `json:"source_app"`    // SourceApp приложение-автор текущей версии
	Version      int64     `json:"version"`       // Version монотонно растущая версия записи
}

// IsNewerThan сообщает, должна ли e заменить other.
// Сравнивается только Version, строго больше. LastModified не участвует:
// при равных версиях побеждает уже сохраненная запись.
func (e *SyncEntity) IsNewerThan(other *SyncEntity) bool {
	return e.Version > other.Version
}

// Clone создает глубокую копию сущности
func (e *SyncEntity) Clone() *SyncEntity {
	if e == nil {
		return nil
	}
	return &SyncEntity{
		ID:           e.ID,
		Kind:         e.Kind,
		Version:      e.Version,
		LastModified: e.LastModified,
		SourceApp:    e.SourceApp,
		Payload:      e.Payload.Clone(),
	}
}

// Payload holds the schema-declared fields of an entity.
type Payload map[string]Value

// Clone copies the map; values are plain structs.
func (p Payload) Clone() Payload {
	if p == nil {
		return nil
	}
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// String returns the named STRING field or "".
func (p Payload) String(name string) string {
	return p[name].Str
}

// Bool returns the named BOOLEAN field or false.
func (p Payload) Bool(name string) bool {
	return p[name].Bool
}

// Int returns the named INT field or 0.
func (p Payload) Int(name string) int32 {
	return int32(p[name].Num)
}

// Long returns the named LONG field or 0.
func (p Payload) Long(name string) int64 {
	return p[name].Num
}

// Equal reports whether both payloads hold the same fields with equal values.
func (p Payload) Equal(other Payload) bool {
	if len(p) != len(other) {
		return false
	}
	for k, v := range p {
		ov, ok := other[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// FieldMap is the flat, loosely typed representation exchanged with the
// transport. Values are string, bool, int32 or int64 on the way out and
// whatever the peer's decoder produced on the way in.
type FieldMap map[string]any
