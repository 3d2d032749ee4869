package kinds

import (
	"time"

	"github.com/iudanet/peersync/internal/models"
	"github.com/iudanet/peersync/internal/syncmgr"
)

const (
	FeedKind     = "rss"
	FeedBasePort = 9230
)

// FeedSchema is the wire schema of RSS subscriptions.
var FeedSchema = models.Schema{
	{Name: "url", Type: models.FieldString},
	{Name: "title", Type: models.FieldString},
	{Name: "category", Type: models.FieldString},
	{Name: "lastFetched", Type: models.FieldLong},
	{Name: "unreadCount", Type: models.FieldInt},
}

// Feed is an RSS feed subscription.
type Feed struct {
	LastFetched time.Time
	URL         string
	Title       string
	Category    string
	Meta
	UnreadCount int32
}

var Feeds = Definition[Feed]{
	Spec: syncmgr.KindSpec{
		Kind:         FeedKind,
		Schema:       FeedSchema,
		BasePort:     FeedBasePort,
		Capabilities: capabilities(FeedKind),
	},
	encode: func(f Feed) (Meta, models.Payload) {
		return f.Meta, models.Payload{
			"url":         models.StringValue(f.URL),
			"title":       models.StringValue(f.Title),
			"category":    models.StringValue(f.Category),
			"lastFetched": models.LongValue(unixMilli(f.LastFetched)),
			"unreadCount": models.IntValue(f.UnreadCount),
		}
	},
	decode: func(meta Meta, p models.Payload) Feed {
		return Feed{
			Meta:        meta,
			URL:         p.String("url"),
			Title:       p.String("title"),
			Category:    p.String("category"),
			LastFetched: fromUnixMilli(p.Long("lastFetched")),
			UnreadCount: p.Int("unreadCount"),
		}
	},
}
