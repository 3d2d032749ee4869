package kinds

import (
	"time"

	"github.com/iudanet/peersync/internal/models"
	"github.com/iudanet/peersync/internal/syncmgr"
)

const (
	HistoryKind     = "history"
	HistoryBasePort = 9130
)

// HistorySchema is the wire schema of browsing history entries.
// visitedAt is Unix milliseconds.
var HistorySchema = models.Schema{
	{Name: "url", Type: models.FieldString},
	{Name: "title", Type: models.FieldString},
	{Name: "visitedAt", Type: models.FieldLong},
	{Name: "visitCount", Type: models.FieldInt},
}

// HistoryEntry is one visited page.
type HistoryEntry struct {
	VisitedAt time.Time
	URL       string
	Title     string
	Meta
	VisitCount int32
}

var History = Definition[HistoryEntry]{
	Spec: syncmgr.KindSpec{
		Kind:         HistoryKind,
		Schema:       HistorySchema,
		BasePort:     HistoryBasePort,
		Capabilities: capabilities(HistoryKind),
	},
	encode: func(h HistoryEntry) (Meta, models.Payload) {
		return h.Meta, models.Payload{
			"url":        models.StringValue(h.URL),
			"title":      models.StringValue(h.Title),
			"visitedAt":  models.LongValue(unixMilli(h.VisitedAt)),
			"visitCount": models.IntValue(h.VisitCount),
		}
	},
	decode: func(meta Meta, p models.Payload) HistoryEntry {
		return HistoryEntry{
			Meta:       meta,
			URL:        p.String("url"),
			Title:      p.String("title"),
			VisitedAt:  fromUnixMilli(p.Long("visitedAt")),
			VisitCount: p.Int("visitCount"),
		}
	},
}

// нулевое время передается как 0, а не как отрицательное число миллисекунд
func unixMilli(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromUnixMilli(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
