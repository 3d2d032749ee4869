package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/iudanet/peersync/internal/validation"
)

// Ключи конверта сущности в FieldMap. Поля схемы не могут их переопределять.
const (
	KeyID           = "id"
	KeyKind         = "kind"
	KeyVersion      = "version"
	KeyLastModified = "lastModified"
	KeySourceApp    = "sourceApp"
)

var reservedKeys = map[string]bool{
	KeyID:           true,
	KeyKind:         true,
	KeyVersion:      true,
	KeyLastModified: true,
	KeySourceApp:    true,
}

// Field is one (name, type) pair of a schema.
type Field struct {
	Name string    `json:"name"`
	Type FieldType `json:"type"`
}

// Schema is the ordered, fixed list of fields of one entity kind.
// It is the negotiation contract handed to the transport and must be
// identical on every peer.
type Schema []Field

// Validate checks field names and types.
func (s Schema) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("%w: no fields", ErrInvalidSchema)
	}

	seen := make(map[string]bool, len(s))
	for _, f := range s {
		if err := validation.ValidateFieldName(f.Name); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSchema, err)
		}
		if reservedKeys[f.Name] {
			return fmt.Errorf("%w: field %q is reserved", ErrInvalidSchema, f.Name)
		}
		if seen[f.Name] {
			return fmt.Errorf("%w: duplicate field %q", ErrInvalidSchema, f.Name)
		}
		if !f.Type.Valid() {
			return fmt.Errorf("%w: field %q: %w", ErrInvalidSchema, f.Name, ErrUnknownFieldType)
		}
		seen[f.Name] = true
	}

	return nil
}

// Lookup returns the field with the given name.
func (s Schema) Lookup(name string) (Field, bool) {
	for _, f := range s {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Fingerprint is a stable textual form of the schema, e.g.
// "name:STRING,isDefault:BOOLEAN". Peers compare fingerprints on handshake.
func (s Schema) Fingerprint() string {
	parts := make([]string, 0, len(s))
	for _, f := range s {
		parts = append(parts, f.Name+":"+string(f.Type))
	}
	return strings.Join(parts, ",")
}

// Normalize checks a payload against the schema and returns a copy that has
// exactly the declared fields. Missing fields get the zero value of their type.
func (s Schema) Normalize(p Payload) (Payload, error) {
	for name := range p {
		if _, ok := s.Lookup(name); !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
		}
	}

	out := make(Payload, len(s))
	for _, f := range s {
		v, ok := p[f.Name]
		if !ok {
			out[f.Name] = ZeroValue(f.Type)
			continue
		}
		if v.Type != f.Type {
			// допускаем INT<->LONG, если значение помещается
			coerced, err := Coerce(f.Type, v.Interface())
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", f.Name, err)
			}
			v = coerced
		}
		out[f.Name] = v
	}

	return out, nil
}

// Encode flattens an entity into a field map: the envelope keys plus every
// schema field in declaration order. LastModified is sent as Unix milliseconds.
func (s Schema) Encode(e *SyncEntity) FieldMap {
	fm := make(FieldMap, len(s)+len(reservedKeys))
	fm[KeyID] = e.ID
	fm[KeyKind] = e.Kind
	fm[KeyVersion] = e.Version
	fm[KeyLastModified] = int64(0)
	if !e.LastModified.IsZero() {
		fm[KeyLastModified] = e.LastModified.UnixMilli()
	}
	fm[KeySourceApp] = e.SourceApp

	for _, f := range s {
		v, ok := e.Payload[f.Name]
		if !ok {
			v = ZeroValue(f.Type)
		}
		fm[f.Name] = v.Interface()
	}

	return fm
}

// Decode builds an entity of the given kind from a field map received from a
// peer. Unknown keys are ignored, missing schema fields take zero values,
// numeric fields are coerced from any integer or integral float representation.
func (s Schema) Decode(kind string, fm FieldMap) (*SyncEntity, error) {
	id, ok := fm[KeyID].(string)
	if !ok || id == "" {
		return nil, fmt.Errorf("%w: missing id", ErrInvalidEntity)
	}

	if k, ok := fm[KeyKind]; ok && k != nil {
		ks, isString := k.(string)
		if !isString || (ks != "" && ks != kind) {
			return nil, fmt.Errorf("%w: kind %v does not match %q", ErrInvalidEntity, k, kind)
		}
	}

	version, err := Coerce(FieldLong, fm[KeyVersion])
	if err != nil {
		return nil, fmt.Errorf("%w: version: %w", ErrInvalidEntity, err)
	}
	if version.Num < 1 {
		return nil, fmt.Errorf("%w: version %d < 1", ErrInvalidEntity, version.Num)
	}

	lastModified, err := decodeTime(fm[KeyLastModified])
	if err != nil {
		return nil, fmt.Errorf("%w: lastModified: %w", ErrInvalidEntity, err)
	}

	var sourceApp string
	if raw, ok := fm[KeySourceApp]; ok && raw != nil {
		sourceApp, ok = raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: sourceApp is %T", ErrInvalidEntity, raw)
		}
	}

	payload := make(Payload, len(s))
	for _, f := range s {
		v, err := Coerce(f.Type, fm[f.Name])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		payload[f.Name] = v
	}

	return &SyncEntity{
		ID:           id,
		Kind:         kind,
		Version:      version.Num,
		LastModified: lastModified,
		SourceApp:    sourceApp,
		Payload:      payload,
	}, nil
}

func decodeTime(raw any) (time.Time, error) {
	switch t := raw.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return t, nil
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err == nil {
			return parsed, nil
		}
	}

	ms, err := Coerce(FieldLong, raw)
	if err != nil {
		return time.Time{}, err
	}
	if ms.Num == 0 {
		return time.Time{}, nil
	}
	return time.UnixMilli(ms.Num), nil
}
