package kinds

import (
	"github.com/iudanet/peersync/internal/models"
	"github.com/iudanet/peersync/internal/syncmgr"
)

const (
	PreferenceKind     = "preferences"
	PreferenceBasePort = 9430
)

// Типы значений настроек, значение всегда передается строкой
const (
	PreferenceString = "string"
	PreferenceBool   = "bool"
	PreferenceInt    = "int"
)

// PreferenceSchema is the wire schema of key/value preferences.
var PreferenceSchema = models.Schema{
	{Name: "key", Type: models.FieldString},
	{Name: "value", Type: models.FieldString},
	{Name: "valueType", Type: models.FieldString},
}

// Preference is one shared setting. The record ID is usually the key.
type Preference struct {
	Key       string
	Value     string
	ValueType string
	Meta
}

var Preferences = Definition[Preference]{
	Spec: syncmgr.KindSpec{
		Kind:         PreferenceKind,
		Schema:       PreferenceSchema,
		BasePort:     PreferenceBasePort,
		Capabilities: capabilities(PreferenceKind),
	},
	encode: func(p Preference) (Meta, models.Payload) {
		return p.Meta, models.Payload{
			"key":       models.StringValue(p.Key),
			"value":     models.StringValue(p.Value),
			"valueType": models.StringValue(p.ValueType),
		}
	},
	decode: func(meta Meta, p models.Payload) Preference {
		return Preference{
			Meta:      meta,
			Key:       p.String("key"),
			Value:     p.String("value"),
			ValueType: p.String("valueType"),
		}
	},
}
