// Package mongo loads datasets from MongoDB collections.
//
// Every document becomes one record; the configured fields become the
// columns. Nested fields are addressed with dotted paths ("size.class").
//
//	d, err := mongo.Load(ctx, mongo.Config{
//	    URI:        "mongodb://localhost:27017",
//	    Database:   "zoo",
//	    Collection: "sightings",
//	    Fields:     []string{"animal", "size.class"},
//	})
package mongo

import (
	"context"
	stderrors "errors"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/flat/pkg/dataset"
	"github.com/matzehuels/flat/pkg/errors"
	"github.com/matzehuels/flat/pkg/retry"
)

const (
	// DefaultTimeout bounds connecting and querying.
	DefaultTimeout = 30 * time.Second

	// DefaultAttempts is how often a query failing with a network error or
	// a server timeout is tried.
	DefaultAttempts = 3

	retryDelay = 500 * time.Millisecond
)

// Config selects the documents to load.
type Config struct {
	URI        string         `toml:"uri" json:"uri"`
	Database   string         `toml:"database" json:"database"`
	Collection string         `toml:"collection" json:"collection"`
	Fields     []string       `toml:"fields" json:"fields"`
	Filter     map[string]any `toml:"filter" json:"filter,omitempty"`
	// Limit caps the number of documents; zero loads all.
	Limit   int64         `toml:"limit" json:"limit,omitempty"`
	Timeout time.Duration `toml:"timeout" json:"timeout,omitempty"`
	// Attempts defaults to DefaultAttempts.
	Attempts int `toml:"attempts" json:"attempts,omitempty"`
}

// Validate checks required fields.
func (c *Config) Validate() error {
	if err := errors.ValidateURL(c.URI, "mongodb", "mongodb+srv"); err != nil {
		return err
	}
	switch {
	case c.Database == "":
		return errors.New(errors.ErrCodeInvalidInput, "mongo database is required")
	case c.Collection == "":
		return errors.New(errors.ErrCodeInvalidInput, "mongo collection is required")
	case len(c.Fields) == 0:
		return errors.New(errors.ErrCodeInvalidInput, "at least one mongo field is required")
	case c.Limit < 0:
		return errors.New(errors.ErrCodeInvalidInput, "limit must not be negative, got %d", c.Limit)
	case c.Attempts < 0:
		return errors.New(errors.ErrCodeInvalidInput, "attempts must not be negative, got %d", c.Attempts)
	}
	return nil
}

// Source returns a printable identifier of the collection, without
// credentials.
func (c *Config) Source() string {
	host := c.URI
	if i := strings.Index(host, "@"); i >= 0 {
		host = host[:strings.Index(host, "//")+2] + host[i+1:]
	}
	return strings.TrimRight(host, "/") + "/" + c.Database + "." + c.Collection
}

// Load connects to MongoDB, reads the matching documents and converts
// them with [FromDocuments].
func Load(ctx context.Context, cfg Config) (*dataset.Dataset, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to %s", cfg.Source())
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	attempts := cfg.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	var docs []bson.M
	err = retry.Do(ctx, attempts, retryDelay, func() error {
		var err error
		docs, err = find(ctx, client, cfg)
		return err
	})
	if stderrors.Is(err, context.DeadlineExceeded) {
		return nil, errors.Wrap(errors.ErrCodeTimeout, err, "query %s", cfg.Source())
	}
	if err != nil {
		return nil, err
	}
	return FromDocuments(cfg.Fields, docs)
}

// transient marks wrapped as retryable when the driver reports cause as a
// network error or a server-side timeout.
func transient(wrapped, cause error) error {
	if mongo.IsNetworkError(cause) || mongo.IsTimeout(cause) {
		return retry.Mark(wrapped)
	}
	return wrapped
}

func find(ctx context.Context, client *mongo.Client, cfg Config) ([]bson.M, error) {
	projection := bson.D{{Key: "_id", Value: 0}}
	for _, f := range cfg.Fields {
		projection = append(projection, bson.E{Key: f, Value: 1})
	}
	findOpts := options.Find().SetProjection(projection)
	if cfg.Limit > 0 {
		findOpts.SetLimit(cfg.Limit)
	}

	filter := bson.M{}
	for k, v := range cfg.Filter {
		filter[k] = v
	}

	cursor, err := client.Database(cfg.Database).Collection(cfg.Collection).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, transient(errors.Wrap(errors.ErrCodeNetwork, err, "query %s", cfg.Source()), err)
	}
	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, transient(errors.Wrap(errors.ErrCodeNetwork, err, "read %s", cfg.Source()), err)
	}
	return docs, nil
}

// FromDocuments projects fields out of every document. The field paths
// become the headers. A document missing a field is an ErrCodeInvalidInput
// error.
func FromDocuments(fields []string, docs []bson.M) (*dataset.Dataset, error) {
	d, err := dataset.New(fields...)
	if err != nil {
		return nil, err
	}
	for i, doc := range docs {
		values := make([]any, len(fields))
		for j, f := range fields {
			raw, ok := lookup(doc, f)
			if !ok {
				return nil, errors.New(errors.ErrCodeInvalidInput, "document %d has no field %q", i, f)
			}
			v, err := convert(raw)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "document %d field %q", i, f)
			}
			values[j] = v
		}
		if err := d.Add(values...); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// lookup follows a dotted path through embedded documents.
func lookup(doc bson.M, path string) (any, bool) {
	var cur any = doc
	for _, part := range strings.Split(path, ".") {
		switch m := cur.(type) {
		case bson.M:
			v, ok := m[part]
			if !ok {
				return nil, false
			}
			cur = v
		case bson.D:
			found := false
			for _, e := range m {
				if e.Key == part {
					cur, found = e.Value, true
					break
				}
			}
			if !found {
				return nil, false
			}
		default:
			return nil, false
		}
	}
	return cur, true
}

// convert maps BSON values onto dimension values.
func convert(v any) (any, error) {
	switch x := v.(type) {
	case string, bool, int64, float64:
		return x, nil
	case int32:
		return int64(x), nil
	case primitive.DateTime:
		return x.Time().UTC(), nil
	case primitive.Timestamp:
		return time.Unix(int64(x.T), 0).UTC(), nil
	case primitive.ObjectID:
		return x.Hex(), nil
	case primitive.Decimal128:
		f, err := strconv.ParseFloat(x.String(), 64)
		if err != nil {
			return nil, err
		}
		return f, nil
	case nil:
		return nil, errors.New(errors.ErrCodeInvalidInput, "null values are not supported")
	}
	return nil, errors.New(errors.ErrCodeInvalidInput, "unsupported BSON value of type %T", v)
}
