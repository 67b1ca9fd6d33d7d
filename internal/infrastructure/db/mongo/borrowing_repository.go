package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bookshelf/bookapp/internal/core/domain"
)

const collectionBorrowings = "borrowings"

// BorrowingRepository keeps one document per lent copy.
type BorrowingRepository struct {
	col *mongo.Collection
	seq *sequence
}

func NewBorrowingRepository(db *mongo.Database) *BorrowingRepository {
	return newBorrowingRepository(db, newSequence(db, collectionBorrowings))
}

func newBorrowingRepository(db *mongo.Database, seq *sequence) *BorrowingRepository {
	return &BorrowingRepository{col: db.Collection(collectionBorrowings), seq: seq}
}

type borrowingDoc struct {
	ID         int64      `bson:"_id"`
	BookID     int64      `bson:"book_id"`
	BookTitle  string     `bson:"book_title"`
	UserName   string     `bson:"user_name"`
	BorrowedAt time.Time  `bson:"borrowed_at"`
	ReturnedAt *time.Time `bson:"returned_at"`
}

func (d borrowingDoc) toDomain() domain.Borrowing {
	b := domain.Borrowing{
		ID:         d.ID,
		BookID:     d.BookID,
		BookTitle:  d.BookTitle,
		UserName:   d.UserName,
		BorrowedAt: domain.Timestamp{Time: d.BorrowedAt.UTC()},
	}
	if d.ReturnedAt != nil {
		b.ReturnedAt = &domain.Timestamp{Time: d.ReturnedAt.UTC()}
	}
	return b
}

func (r *BorrowingRepository) Create(ctx context.Context, b *domain.Borrowing) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.seq.next(ctx)
	if err != nil {
		return err
	}
	b.ID = id
	doc := borrowingDoc{
		ID:         b.ID,
		BookID:     b.BookID,
		BookTitle:  b.BookTitle,
		UserName:   b.UserName,
		BorrowedAt: b.BorrowedAt.UTC(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert borrowing: %w", err)
	}
	return nil
}

func (r *BorrowingRepository) FindByID(ctx context.Context, id int64) (*domain.Borrowing, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc borrowingDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrBorrowingNotFound
		}
		return nil, err
	}
	b := doc.toDomain()
	return &b, nil
}

// MarkReturned sets returned_at only while it is still null, so two racing
// returns cannot both succeed.
func (r *BorrowingRepository) MarkReturned(ctx context.Context, id int64, at domain.Timestamp) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "returned_at": nil},
		bson.M{"$set": bson.M{"returned_at": at.UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 1 {
		return nil
	}
	if _, err := r.FindByID(ctx, id); err != nil {
		return err
	}
	return domain.ErrAlreadyReturned
}

func (r *BorrowingRepository) ListByUser(ctx context.Context, userName string) ([]domain.Borrowing, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"user_name": userName},
		options.Find().SetSort(bson.D{{Key: "borrowed_at", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find borrowings: %w", err)
	}
	defer cur.Close(ctx)

	var docs []borrowingDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode borrowings: %w", err)
	}
	out := make([]domain.Borrowing, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *BorrowingRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_name", Value: 1}, {Key: "borrowed_at", Value: -1}},
	})
	return err
}
