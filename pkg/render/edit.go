package render

import (
	"context"

	"github.com/goliatone/go-questionnaire/pkg/codec"
	"github.com/goliatone/go-questionnaire/pkg/model"
)

// Committer persists a single answer; *session.Session satisfies it.
type Committer interface {
	PersistAnswer(ctx context.Context, code string, value any) error
}

// Edit is the one path every front-end uses to change an answer: the widget
// input goes through the codec and the encoded value is persisted. Each call
// issues its own remote write.
func Edit(ctx context.Context, committer Committer, q model.Question, in codec.Input) error {
	value, err := codec.Encode(q, in)
	if err != nil {
		return &EditError{Code: q.Code, Err: err}
	}
	return committer.PersistAnswer(ctx, q.Code, value)
}
