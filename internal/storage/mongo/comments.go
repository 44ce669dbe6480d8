package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/pribylovaa/webthreads/internal/models"
	"github.com/pribylovaa/webthreads/internal/storage"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateComment вставляет документ с version=1.
func (m *Mongo) CreateComment(ctx context.Context, c models.Comment) (*models.Comment, error) {
	const op = "storage/mongo/CreateComment"

	c.Normalize()
	c.Version = 1

	if _, err := m.comments.InsertOne(ctx, c); err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrConflict)
		}

		return nil, fmt.Errorf("%s: insert: %w", op, err)
	}

	return &c, nil
}

func (m *Mongo) CommentByID(ctx context.Context, id string) (*models.Comment, error) {
	const op = "storage/mongo/CommentByID"

	c, err := m.findByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return c, nil
}

// ListByURL возвращает все комментарии страницы, сначала новые.
func (m *Mongo) ListByURL(ctx context.Context, url string) ([]models.Comment, error) {
	const op = "storage/mongo/ListByURL"

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	cur, err := m.comments.Find(ctx, bson.D{{Key: "url", Value: url}}, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: find: %w", op, err)
	}
	defer cur.Close(ctx)

	out := make([]models.Comment, 0)
	for cur.Next(ctx) {
		var c models.Comment
		if err := cur.Decode(&c); err != nil {
			return nil, fmt.Errorf("%s: decode: %w", op, err)
		}

		c.Normalize()
		out = append(out, c)
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%s: cursor: %w", op, err)
	}

	return out, nil
}

// UpdateComment — оптимистичная запись: читаем документ, применяем mutate,
// заменяем только если version не изменилась. При гонке перечитываем
// с паузой; после cfg.Limits.UpdateRetries попыток — ErrConflict.
func (m *Mongo) UpdateComment(ctx context.Context, id string, mutate storage.Mutator) (*models.Comment, error) {
	const op = "storage/mongo/UpdateComment"

	var out *models.Comment
	err := m.retryOnConflict(ctx, func() error {
		cur, err := m.findByID(ctx, id)
		if err != nil {
			return err
		}

		next := cur.Clone()
		if err := mutate(&next); err != nil {
			return err
		}

		next.ID = cur.ID
		next.Version = cur.Version + 1
		next.Normalize()

		filter := bson.D{{Key: "_id", Value: cur.ID}, {Key: "version", Value: cur.Version}}
		res, err := m.comments.ReplaceOne(ctx, filter, next)
		if err != nil {
			return fmt.Errorf("replace: %w", err)
		}

		if res.MatchedCount == 0 {
			return errVersionMismatch
		}

		out = &next
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// DeleteComment удаляет документ той версии, которую проверил check.
// Если документ успели изменить, он перечитывается и проверяется заново.
func (m *Mongo) DeleteComment(ctx context.Context, id string, check func(c models.Comment) error) error {
	const op = "storage/mongo/DeleteComment"

	err := m.retryOnConflict(ctx, func() error {
		cur, err := m.findByID(ctx, id)
		if err != nil {
			return err
		}

		if check != nil {
			if err := check(*cur); err != nil {
				return err
			}
		}

		res, err := m.comments.DeleteOne(ctx, bson.D{{Key: "_id", Value: cur.ID}, {Key: "version", Value: cur.Version}})
		if err != nil {
			return fmt.Errorf("delete: %w", err)
		}

		if res.DeletedCount == 0 {
			return errVersionMismatch
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (m *Mongo) findByID(ctx context.Context, id string) (*models.Comment, error) {
	var c models.Comment
	if err := m.comments.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&c); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, storage.ErrNotFound
		}

		return nil, fmt.Errorf("find: %w", err)
	}

	c.Normalize()
	return &c, nil
}
