package kinds

import (
	"github.com/google/uuid"

	"github.com/iudanet/peersync/internal/models"
	"github.com/iudanet/peersync/internal/syncmgr"
)

const (
	// ThemeKind имя типа для тем оформления
	ThemeKind = "theme"
	// ThemeBasePort базовый порт транспорта тем
	ThemeBasePort = 8930
	// ThemeDefaultFlag поле выбора темы по умолчанию, не принимается от чужих приложений
	ThemeDefaultFlag = "isDefault"
	// DefaultThemeName имя темы, создаваемой при первом запуске
	DefaultThemeName = "Default"
)

// ThemeSchema is the wire schema of themes.
var ThemeSchema = models.Schema{
	{Name: "name", Type: models.FieldString},
	{Name: "primaryColor", Type: models.FieldString},
	{Name: "accentColor", Type: models.FieldString},
	{Name: "darkMode", Type: models.FieldBool},
	{Name: ThemeDefaultFlag, Type: models.FieldBool},
}

// Theme is a UI color theme.
type Theme struct {
	Name         string
	PrimaryColor string
	AccentColor  string
	Meta
	DarkMode  bool
	IsDefault bool
}

// Themes binds Theme to the theme kind. Each app seeds its own default
// theme; the isDefault flag of foreign themes is cleared on receipt.
var Themes = Definition[Theme]{
	Spec: syncmgr.KindSpec{
		Kind:         ThemeKind,
		Schema:       ThemeSchema,
		BasePort:     ThemeBasePort,
		Capabilities: capabilities(ThemeKind),
		Policy:       syncmgr.ExclusiveFlagPolicy(ThemeDefaultFlag),
		Default:      syncmgr.FlagDefault(ThemeDefaultFlag),
		Bootstrap:    syncmgr.SeedIfEmpty(defaultTheme),
	},
	encode: encodeTheme,
	decode: decodeTheme,
}

func encodeTheme(t Theme) (Meta, models.Payload) {
	return t.Meta, models.Payload{
		"name":           models.StringValue(t.Name),
		"primaryColor":   models.StringValue(t.PrimaryColor),
		"accentColor":    models.StringValue(t.AccentColor),
		"darkMode":       models.BoolValue(t.DarkMode),
		ThemeDefaultFlag: models.BoolValue(t.IsDefault),
	}
}

func decodeTheme(meta Meta, p models.Payload) Theme {
	return Theme{
		Meta:         meta,
		Name:         p.String("name"),
		PrimaryColor: p.String("primaryColor"),
		AccentColor:  p.String("accentColor"),
		DarkMode:     p.Bool("darkMode"),
		IsDefault:    p.Bool(ThemeDefaultFlag),
	}
}

func defaultTheme() *models.SyncEntity {
	_, payload := encodeTheme(Theme{
		Name:         DefaultThemeName,
		PrimaryColor: "#1E88E5",
		AccentColor:  "#FF7043",
		IsDefault:    true,
	})
	return &models.SyncEntity{
		ID:      uuid.NewString(),
		Kind:    ThemeKind,
		Payload: payload,
	}
}
