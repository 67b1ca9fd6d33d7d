package mongo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bookshelf/bookapp/internal/core/domain"
	"github.com/bookshelf/bookapp/internal/core/ports"
)

const collectionBooks = "books"

type BookRepository struct {
	col *mongo.Collection
	seq *sequence
}

func NewBookRepository(db *mongo.Database) *BookRepository {
	return newBookRepository(db, newSequence(db, collectionBooks))
}

func newBookRepository(db *mongo.Database, seq *sequence) *BookRepository {
	return &BookRepository{col: db.Collection(collectionBooks), seq: seq}
}

type bookDoc struct {
	ID              int64      `bson:"_id"`
	Title           string     `bson:"title"`
	Author          string     `bson:"author"`
	PublicationDate *time.Time `bson:"publication_date,omitempty"`
	Quantity        int        `bson:"quantity"`
}

func toBookDoc(b *domain.Book) bookDoc {
	doc := bookDoc{ID: b.ID, Title: b.Title, Author: b.Author, Quantity: b.Quantity}
	if b.PublicationDate != nil && !b.PublicationDate.IsZero() {
		t := b.PublicationDate.Time
		doc.PublicationDate = &t
	}
	return doc
}

func (d bookDoc) toDomain() domain.Book {
	b := domain.Book{ID: d.ID, Title: d.Title, Author: d.Author, Quantity: d.Quantity}
	if d.PublicationDate != nil {
		pd := domain.NewDate(d.PublicationDate.UTC().Date())
		b.PublicationDate = &pd
	}
	return b
}

// Create assigns the next numeric id and inserts the book.
func (r *BookRepository) Create(ctx context.Context, b *domain.Book) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.seq.next(ctx)
	if err != nil {
		return err
	}
	b.ID = id
	if _, err := r.col.InsertOne(ctx, toBookDoc(b)); err != nil {
		return fmt.Errorf("insert book: %w", err)
	}
	return nil
}

func (r *BookRepository) FindByID(ctx context.Context, id int64) (*domain.Book, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc bookDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrBookNotFound
		}
		return nil, err
	}
	b := doc.toDomain()
	return &b, nil
}

func (r *BookRepository) Update(ctx context.Context, b *domain.Book) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": b.ID}, toBookDoc(b))
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrBookNotFound
	}
	return nil
}

func (r *BookRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrBookNotFound
	}
	return nil
}

// List returns one page of books and the total number of matches.
func (r *BookRepository) List(ctx context.Context, f ports.ListBooksFilter) ([]domain.Book, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := listFilter(f.Search)
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count books: %w", err)
	}

	cur, err := r.col.Find(ctx, filter, listOptions(f))
	if err != nil {
		return nil, 0, fmt.Errorf("find books: %w", err)
	}
	defer cur.Close(ctx)

	var docs []bookDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode books: %w", err)
	}
	items := make([]domain.Book, 0, len(docs))
	for _, d := range docs {
		items = append(items, d.toDomain())
	}
	return items, total, nil
}

// AdjustQuantity applies delta in one conditional update so that concurrent
// borrows cannot drive the quantity below zero.
func (r *BookRepository) AdjustQuantity(ctx context.Context, id int64, delta int) (*domain.Book, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": id}
	if delta < 0 {
		filter["quantity"] = bson.M{"$gte": -delta}
	}

	var doc bookDoc
	err := r.col.FindOneAndUpdate(ctx, filter,
		bson.M{"$inc": bson.M{"quantity": delta}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err == nil {
		b := doc.toDomain()
		return &b, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	// distinguish a missing book from an empty shelf
	if _, ferr := r.FindByID(ctx, id); ferr != nil {
		return nil, ferr
	}
	return nil, domain.ErrOutOfStock
}

// EnsureIndexes creates the indexes used by search and sort.
func (r *BookRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "title", Value: 1}}, Options: options.Index().SetCollation(caseInsensitive())},
		{Keys: bson.D{{Key: "author", Value: 1}}, Options: options.Index().SetCollation(caseInsensitive())},
		{Keys: bson.D{{Key: "publication_date", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

// listFilter matches search case-insensitively against title or author.
func listFilter(search string) bson.M {
	if search == "" {
		return bson.M{}
	}
	re := bson.M{"$regex": regexp.QuoteMeta(search), "$options": "i"}
	return bson.M{"$or": bson.A{
		bson.M{"title": re},
		bson.M{"author": re},
	}}
}

func listSort(sortBy string, desc bool) bson.D {
	dir := 1
	if desc {
		dir = -1
	}
	field := map[string]string{
		domain.SortByTitle:           "title",
		domain.SortByAuthor:          "author",
		domain.SortByPublicationDate: "publication_date",
	}[sortBy]
	if field == "" {
		return bson.D{{Key: "_id", Value: dir}}
	}
	return bson.D{{Key: field, Value: dir}, {Key: "_id", Value: dir}}
}

func listOptions(f ports.ListBooksFilter) *options.FindOptions {
	return options.Find().
		SetSort(listSort(f.SortBy, f.Desc)).
		SetSkip(skip(f.Page, f.PageSize)).
		SetLimit(int64(f.PageSize)).
		SetCollation(caseInsensitive())
}

// skip returns the offset of page, saturating instead of wrapping.
func skip(page, pageSize int) int64 {
	if page < 1 || pageSize < 1 {
		return 0
	}
	p, n := int64(page-1), int64(pageSize)
	if p > math.MaxInt64/n {
		return math.MaxInt64
	}
	return p * n
}

func caseInsensitive() *options.Collation {
	return &options.Collation{Locale: "en", Strength: 2}
}
