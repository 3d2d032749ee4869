package kinds

import (
	"github.com/iudanet/peersync/internal/models"
	"github.com/iudanet/peersync/internal/syncmgr"
)

const (
	ProfileKind     = "profile"
	ProfileBasePort = 9030
)

// ProfileSchema is the wire schema of connection profiles.
var ProfileSchema = models.Schema{
	{Name: "name", Type: models.FieldString},
	{Name: "serverUrl", Type: models.FieldString},
	{Name: "username", Type: models.FieldString},
	{Name: "port", Type: models.FieldInt},
	{Name: "useTls", Type: models.FieldBool},
}

// Profile is a saved server connection profile.
type Profile struct {
	Name      string
	ServerURL string
	Username  string
	Meta
	Port   int32
	UseTLS bool
}

var Profiles = Definition[Profile]{
	Spec: syncmgr.KindSpec{
		Kind:         ProfileKind,
		Schema:       ProfileSchema,
		BasePort:     ProfileBasePort,
		Capabilities: capabilities(ProfileKind),
	},
	encode: func(p Profile) (Meta, models.Payload) {
		return p.Meta, models.Payload{
			"name":      models.StringValue(p.Name),
			"serverUrl": models.StringValue(p.ServerURL),
			"username":  models.StringValue(p.Username),
			"port":      models.IntValue(p.Port),
			"useTls":    models.BoolValue(p.UseTLS),
		}
	},
	decode: func(meta Meta, p models.Payload) Profile {
		return Profile{
			Meta:      meta,
			Name:      p.String("name"),
			ServerURL: p.String("serverUrl"),
			Username:  p.String("username"),
			Port:      p.Int("port"),
			UseTLS:    p.Bool("useTls"),
		}
	},
}
