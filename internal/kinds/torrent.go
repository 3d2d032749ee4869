package kinds

import (
	"github.com/iudanet/peersync/internal/models"
	"github.com/iudanet/peersync/internal/syncmgr"
)

const (
	TorrentKind     = "torrent"
	TorrentBasePort = 9630
)

// TorrentSchema is the wire schema of shared torrent metadata.
var TorrentSchema = models.Schema{
	{Name: "infoHash", Type: models.FieldString},
	{Name: "name", Type: models.FieldString},
	{Name: "sizeBytes", Type: models.FieldLong},
	{Name: "magnetUri", Type: models.FieldString},
	{Name: "seeding", Type: models.FieldBool},
}

// Torrent is metadata of a torrent shared between apps.
type Torrent struct {
	InfoHash  string
	Name      string
	MagnetURI string
	Meta
	SizeBytes int64
	Seeding   bool
}

var Torrents = Definition[Torrent]{
	Spec: syncmgr.KindSpec{
		Kind:         TorrentKind,
		Schema:       TorrentSchema,
		BasePort:     TorrentBasePort,
		Capabilities: capabilities(TorrentKind),
	},
	encode: func(t Torrent) (Meta, models.Payload) {
		return t.Meta, models.Payload{
			"infoHash":  models.StringValue(t.InfoHash),
			"name":      models.StringValue(t.Name),
			"sizeBytes": models.LongValue(t.SizeBytes),
			"magnetUri": models.StringValue(t.MagnetURI),
			"seeding":   models.BoolValue(t.Seeding),
		}
	},
	decode: func(meta Meta, p models.Payload) Torrent {
		return Torrent{
			Meta:      meta,
			InfoHash:  p.String("infoHash"),
			Name:      p.String("name"),
			MagnetURI: p.String("magnetUri"),
			SizeBytes: p.Long("sizeBytes"),
			Seeding:   p.Bool("seeding"),
		}
	},
}
