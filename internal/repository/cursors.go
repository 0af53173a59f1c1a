package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type cursorDoc struct {
	StreamID string    `bson:"_id"`
	Token    []byte    `bson:"token"`
	SavedAt  time.Time `bson:"saved_at"`
}

// LoadCursor returns the resume token saved for streamID, or nil.
func (s *Store) LoadCursor(ctx context.Context, streamID string) ([]byte, error) {
	var tok []byte
	err := s.do(ctx, "LoadCursor", func(ctx context.Context) error {
		var doc cursorDoc
		err := s.coll(s.cols.Cursors).FindOne(ctx, bson.M{"_id": streamID}).Decode(&doc)
		if IsNotFound(err) {
			tok = nil
			return nil
		}
		if err != nil {
			return err
		}
		tok = doc.Token
		return nil
	})
	return tok, err
}

// PersistCursor saves the resume token of streamID.
func (s *Store) PersistCursor(ctx context.Context, streamID string, token []byte) error {
	return s.do(ctx, "PersistCursor", func(ctx context.Context) error {
		_, err := s.coll(s.cols.Cursors).UpdateOne(ctx,
			bson.M{"_id": streamID},
			bson.M{"$set": bson.M{"token": token, "saved_at": s.now()}},
			options.Update().SetUpsert(true),
		)
		return err
	})
}
