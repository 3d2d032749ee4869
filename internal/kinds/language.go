package kinds

import (
	"github.com/iudanet/peersync/internal/models"
	"github.com/iudanet/peersync/internal/syncmgr"
)

const (
	LanguageKind     = "language"
	LanguageBasePort = 9530
	// LanguageID фиксированный id единственной записи выбора языка
	LanguageID = "language"
)

// LanguageSchema is the wire schema of the language choice.
var LanguageSchema = models.Schema{
	{Name: "code", Type: models.FieldString},
	{Name: "displayName", Type: models.FieldString},
}

// Language is the UI language shared by all apps. There is exactly one
// record with ID LanguageID.
type Language struct {
	Code        string
	DisplayName string
	Meta
}

var Languages = Definition[Language]{
	Spec: syncmgr.KindSpec{
		Kind:         LanguageKind,
		Schema:       LanguageSchema,
		BasePort:     LanguageBasePort,
		Capabilities: capabilities(LanguageKind),
		Default:      syncmgr.SingletonDefault(LanguageID),
		Bootstrap:    syncmgr.SeedIfMissing(defaultLanguage),
	},
	encode: encodeLanguage,
	decode: func(meta Meta, p models.Payload) Language {
		return Language{
			Meta:        meta,
			Code:        p.String("code"),
			DisplayName: p.String("displayName"),
		}
	},
}

func encodeLanguage(l Language) (Meta, models.Payload) {
	if l.ID == "" {
		l.ID = LanguageID
	}
	return l.Meta, models.Payload{
		"code":        models.StringValue(l.Code),
		"displayName": models.StringValue(l.DisplayName),
	}
}

func defaultLanguage() *models.SyncEntity {
	meta, payload := encodeLanguage(Language{Code: "en", DisplayName: "English"})
	return &models.SyncEntity{
		ID:      meta.ID,
		Kind:    LanguageKind,
		Payload: payload,
	}
}
