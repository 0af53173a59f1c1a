package repository

import (
	"context"
	"errors"
	"sort"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"delivery-orchestrator/internal/domain"
)

// InsertNotification appends to the notification log. A duplicate is reported as apperr.ErrDuplicate.
func (s *Store) InsertNotification(ctx context.Context, n domain.Notification) error {
	return s.insertOne(ctx, "InsertNotification", s.cols.Notifications, n)
}

// InsertRefund appends a refund entry.
func (s *Store) InsertRefund(ctx context.Context, r domain.Refund) error {
	return s.insertOne(ctx, "InsertRefund", s.cols.Refunds, r)
}

// InsertMetric appends an assignment metric.
func (s *Store) InsertMetric(ctx context.Context, m domain.AssignmentMetric) error {
	return s.insertOne(ctx, "InsertMetric", s.cols.Metrics, m)
}

func (s *Store) insertOne(ctx context.Context, method, collection string, doc any) error {
	return s.do(ctx, method, func(ctx context.Context) error {
		_, err := s.coll(collection).InsertOne(ctx, doc)
		return err
	})
}

// BulkResult counts the outcome of an unordered bulk insert. DuplicateIDs lists the ids
// of the documents rejected by a unique index, in input order.
type BulkResult struct {
	Inserted     int
	Duplicates   int
	DuplicateIDs []string
}

// bulkInsertUnordered inserts docs without stopping at the first failure. ids[i] names
// docs[i]. Duplicate key errors are collected; any other write error fails the call.
func (s *Store) bulkInsertUnordered(ctx context.Context, method, collection string, docs []any, ids []string) (BulkResult, error) {
	var res BulkResult
	if len(docs) == 0 {
		return res, nil
	}
	err := s.do(ctx, method, func(ctx context.Context) error {
		res = BulkResult{}
		_, err := s.coll(collection).InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
		if err == nil {
			res.Inserted = len(docs)
			return nil
		}
		dups, ok := duplicatesOf(err, ids)
		if !ok {
			return err
		}
		res.Duplicates = len(dups)
		res.DuplicateIDs = dups
		res.Inserted = len(docs) - len(dups)
		return nil
	})
	return res, err
}

// duplicatesOf returns the ids of the documents an unordered insert rejected as duplicates.
// ok is false when err holds anything but duplicate key errors.
func duplicatesOf(err error, ids []string) ([]string, bool) {
	var bwe mongo.BulkWriteException
	if !errors.As(err, &bwe) || bwe.WriteConcernError != nil || len(bwe.WriteErrors) == 0 {
		return nil, false
	}
	idx := make([]int, 0, len(bwe.WriteErrors))
	for _, we := range bwe.WriteErrors {
		if we.Code != duplicateKeyCode || we.Index < 0 || we.Index >= len(ids) {
			return nil, false
		}
		idx = append(idx, we.Index)
	}
	sort.Ints(idx)
	dups := make([]string, len(idx))
	for i, n := range idx {
		dups[i] = ids[n]
	}
	return dups, true
}
