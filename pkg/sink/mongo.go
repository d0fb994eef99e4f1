package sink

import (
	"context"
	stderrors "errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/matzehuels/semiframes/pkg/cache"
	"github.com/matzehuels/semiframes/pkg/errors"
	"github.com/matzehuels/semiframes/pkg/family"
)

// MongoOptions configures a MongoDB sink.
type MongoOptions struct {
	URI        string `toml:"uri"`        // e.g. mongodb://localhost:27017
	Database   string `toml:"database"`   // default "semiframes"
	Collection string `toml:"collection"` // default "families"
	BatchSize  int    `toml:"batch_size"` // documents per InsertMany, default 512

	Mode  string `toml:"-"`
	RunID string `toml:"-"`
}

func (o *MongoOptions) setDefaults() {
	if o.Database == "" {
		o.Database = "semiframes"
	}
	if o.Collection == "" {
		o.Collection = "families"
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 512
	}
}

// Document is the stored form of one family.
type Document struct {
	ID        string    `json:"id" bson:"_id"`
	RunID     string    `json:"run_id" bson:"run_id"`
	N         int       `json:"n" bson:"n"`
	Mode      string    `json:"mode" bson:"mode"`
	Masks     []int64   `json:"masks" bson:"masks"`
	Text      string    `json:"text" bson:"text"`
	Hash      string    `json:"hash" bson:"hash"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// NewDocument builds the document for f within a run.
func NewDocument(runID, mode string, n int, f family.Family) Document {
	masks := make([]int64, len(f))
	for i, m := range f {
		masks[i] = int64(m)
	}
	hash := cache.FamilyHash(f, n)
	return Document{
		ID:        runID + ":" + hash,
		RunID:     runID,
		N:         n,
		Mode:      mode,
		Masks:     masks,
		Text:      f.Render(n),
		Hash:      hash,
		CreatedAt: time.Now().UTC(),
	}
}

// Mongo inserts one Document per family. Document IDs are derived from the
// run and the family, so a retried batch never stores a family twice.
type Mongo struct {
	client  *mongo.Client
	coll    *mongo.Collection
	opts    MongoOptions
	pending []any
	backoff Backoff
}

// NewMongo connects to MongoDB.
func NewMongo(ctx context.Context, opts MongoOptions) (*Mongo, error) {
	opts.setDefaults()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "configure mongodb client")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeIO, err, "connect to mongodb")
	}
	return &Mongo{
		client:  client,
		coll:    client.Database(opts.Database).Collection(opts.Collection),
		opts:    opts,
		backoff: DefaultBackoff,
	}, nil
}

// Namespace returns "database.collection".
func (m *Mongo) Namespace() string { return m.opts.Database + "." + m.opts.Collection }

// Write implements Sink.
func (m *Mongo) Write(ctx context.Context, n int, f family.Family) error {
	m.pending = append(m.pending, NewDocument(m.opts.RunID, m.opts.Mode, n, f))
	if len(m.pending) >= m.opts.BatchSize {
		return m.flush(ctx)
	}
	return nil
}

func (m *Mongo) flush(ctx context.Context) error {
	if len(m.pending) == 0 {
		return nil
	}
	err := m.backoff.Retry(ctx, func() error {
		_, err := m.coll.InsertMany(ctx, m.pending, options.InsertMany().SetOrdered(false))
		switch {
		case err == nil, mongo.IsDuplicateKeyError(err):
			return nil
		case mongo.IsNetworkError(err), mongo.IsTimeout(err):
			return Retryable(err)
		}
		return err
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "insert into %s.%s", m.opts.Database, m.opts.Collection)
	}
	m.pending = m.pending[:0]
	return nil
}

// Close implements Sink.
func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return stderrors.Join(m.flush(ctx), m.client.Disconnect(ctx))
}
