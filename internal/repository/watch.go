package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"delivery-orchestrator/internal/events"
)

// Watch opens a change stream on collection with full post-images. A nil resume token
// starts from now.
func (s *Store) Watch(ctx context.Context, collection string, filter events.Filter, resume []byte) (events.Stream, error) {
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	if len(resume) > 0 {
		opts.SetResumeAfter(bson.Raw(resume))
	}
	cs, err := s.coll(collection).Watch(ctx, watchPipeline(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", collection, classify(err))
	}
	return &changeStream{cs: cs, collection: collection}, nil
}

func watchPipeline(f events.Filter) mongo.Pipeline {
	match := bson.D{}
	if len(f.Ops) > 0 {
		ops := make(bson.A, 0, len(f.Ops))
		for _, op := range f.Ops {
			ops = append(ops, string(op))
		}
		match = append(match, bson.E{Key: "operationType", Value: bson.M{"$in": ops}})
	}
	if len(f.Statuses) > 0 {
		match = append(match, bson.E{Key: "fullDocument.status", Value: bson.M{"$in": f.Statuses}})
	}
	if len(match) == 0 {
		return mongo.Pipeline{}
	}
	return mongo.Pipeline{{{Key: "$match", Value: match}}}
}

type changeEvent struct {
	OperationType string   `bson:"operationType"`
	FullDocument  bson.Raw `bson:"fullDocument"`
}

type changeStream struct {
	cs         *mongo.ChangeStream
	collection string
	current    events.Event
	err        error
}

func (c *changeStream) Next(ctx context.Context) bool {
	for c.cs.Next(ctx) {
		var ce changeEvent
		if err := c.cs.Decode(&ce); err != nil {
			c.err = fmt.Errorf("decode change event: %w", err)
			return false
		}
		// the document was deleted before the post-image lookup
		if len(ce.FullDocument) == 0 {
			continue
		}
		c.current = events.Event{
			Collection: c.collection,
			Op:         events.Op(ce.OperationType),
			Doc:        ce.FullDocument,
			Token:      append([]byte(nil), c.cs.ResumeToken()...),
		}
		return true
	}
	return false
}

func (c *changeStream) Event() events.Event { return c.current }

func (c *changeStream) Err() error {
	if c.err != nil {
		return c.err
	}
	return classify(c.cs.Err())
}

func (c *changeStream) Close(ctx context.Context) error {
	return c.cs.Close(ctx)
}
