//go:build integration

package sink

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/semiframes/pkg/family"
)

func TestRedisIntegration(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	prefix := "semiframes-test-" + uuid.NewString()
	s, err := NewRedis(ctx, RedisOptions{URL: url, Prefix: prefix, Mode: "semitopologies", RunID: "run", BatchSize: 2}, 2)
	require.NoError(t, err)

	for _, f := range []family.Family{family.New(0, 3), family.New(0, 2, 3), family.New(0, 1, 2, 3)} {
		require.NoError(t, s.Write(ctx, 2, f))
	}
	require.NoError(t, s.Close())

	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	defer client.Close()

	key := RedisKey(prefix, "semitopologies", 2)
	defer client.Del(ctx, key, key+":meta")

	got, err := client.LRange(ctx, key, 0, -1).Result()
	require.NoError(t, err)
	assert.Equal(t, []string{"{{}, {1, 2}}", "{{}, {2}, {1, 2}}", "{{}, {1}, {2}, {1, 2}}"}, got)

	count, err := client.HGet(ctx, key+":meta", "count").Result()
	require.NoError(t, err)
	assert.Equal(t, "3", count)
}

func TestMongoIntegration(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	runID := uuid.NewString()
	opts := MongoOptions{URI: uri, Database: "semiframes_test", Mode: "semiframes", RunID: runID, BatchSize: 2}
	s, err := NewMongo(ctx, opts)
	require.NoError(t, err)

	require.NoError(t, s.Write(ctx, 2, family.New(0, 2, 3)))
	require.NoError(t, s.Write(ctx, 2, family.New(0, 1, 2, 3)))
	require.NoError(t, s.Write(ctx, 2, family.New(0, 1, 2, 3)), "duplicate documents are tolerated")
	require.NoError(t, s.Close())

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	defer client.Disconnect(ctx)
	coll := client.Database("semiframes_test").Collection("families")
	defer coll.DeleteMany(ctx, bson.M{"run_id": runID})

	n, err := coll.CountDocuments(ctx, bson.M{"run_id": runID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	var doc Document
	require.NoError(t, coll.FindOne(ctx, bson.M{"run_id": runID, "masks": bson.M{"$size": 3}}).Decode(&doc))
	assert.Equal(t, "{{}, {2}, {1, 2}}", doc.Text)
	assert.Equal(t, []int64{0, 2, 3}, doc.Masks)
}
