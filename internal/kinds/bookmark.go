package kinds

import (
	"github.com/iudanet/peersync/internal/models"
	"github.com/iudanet/peersync/internal/syncmgr"
)

const (
	BookmarkKind     = "bookmark"
	BookmarkBasePort = 9330
)

// BookmarkSchema is the wire schema of bookmarks.
var BookmarkSchema = models.Schema{
	{Name: "url", Type: models.FieldString},
	{Name: "title", Type: models.FieldString},
	{Name: "folder", Type: models.FieldString},
	{Name: "position", Type: models.FieldInt},
}

// Bookmark is a saved link inside a folder.
type Bookmark struct {
	URL    string
	Title  string
	Folder string
	Meta
	Position int32
}

var Bookmarks = Definition[Bookmark]{
	Spec: syncmgr.KindSpec{
		Kind:         BookmarkKind,
		Schema:       BookmarkSchema,
		BasePort:     BookmarkBasePort,
		Capabilities: capabilities(BookmarkKind),
	},
	encode: func(b Bookmark) (Meta, models.Payload) {
		return b.Meta, models.Payload{
			"url":      models.StringValue(b.URL),
			"title":    models.StringValue(b.Title),
			"folder":   models.StringValue(b.Folder),
			"position": models.IntValue(b.Position),
		}
	},
	decode: func(meta Meta, p models.Payload) Bookmark {
		return Bookmark{
			Meta:     meta,
			URL:      p.String("url"),
			Title:    p.String("title"),
			Folder:   p.String("folder"),
			Position: p.Int("position"),
		}
	},
}
