// Package search maintains a full-text index over chat messages so members
// can search a project's history.
package search

import (
	"context"
	"log/slog"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"

	"devconnect/domain"
)

// Hit is one search result: enough to locate the message in history.
type Hit struct {
	MessageID uuid.UUID `json:"messageId"`
	ProjectID string    `json:"projectId"`
	Content   string    `json:"content"`
}

// Index wraps a bluge writer. Indexing happens in the append path; a failed
// index write is logged, never surfaced, because search lags behind the
// authoritative message store by design.
type Index struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func Open(path string, log *slog.Logger) (*Index, error) {
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(path))
	if err != nil {
		return nil, err
	}
	return &Index{writer: writer, log: log}, nil
}

func (i *Index) Close() error {
	return i.writer.Close()
}

// IndexMessage upserts one message document keyed by its id.
func (i *Index) IndexMessage(message domain.Message) error {
	doc := bluge.NewDocument(message.ID.String()).
		AddField(bluge.NewKeywordField("project", message.ProjectID).StoreValue()).
		AddField(bluge.NewTextField("content", message.Content).StoreValue())
	return i.writer.Update(doc.ID(), doc)
}

// Search returns up to query.Limit hits matching query.Terms inside one
// project. Results are relevance-ordered by bluge.
func (i *Index) Search(ctx context.Context, projectID string, query Query) ([]Hit, error) {
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			i.log.Warn("closing index reader", "error", err)
		}
	}()

	q := bluge.NewBooleanQuery().
		AddMust(bluge.NewTermQuery(projectID).SetField("project")).
		AddMust(bluge.NewMatchQuery(query.Terms).SetField("content"))

	iterator, err := reader.Search(ctx, bluge.NewTopNSearch(query.Limit, q))
	if err != nil {
		return nil, err
	}

	var hits []Hit
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			return hits, nil
		}
		hit := Hit{}
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				if id, err := uuid.Parse(string(value)); err == nil {
					hit.MessageID = id
				}
			case "project":
				hit.ProjectID = string(value)
			case "content":
				hit.Content = string(value)
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
}
