package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDimension = 4

func testCollection() CollectionConfig {
	return CollectionConfig{Name: "test", Dimension: testDimension, Distance: DistanceCosine}
}

// localStores returns every VectorStore that runs without external services.
func localStores() map[string]func(*testing.T, CollectionConfig) VectorStore {
	return map[string]func(*testing.T, CollectionConfig) VectorStore{
		"memory": func(t *testing.T, cfg CollectionConfig) VectorStore {
			return NewMemoryStorage(cfg)
		},
		"sqlite": func(t *testing.T, cfg CollectionConfig) VectorStore {
			s, err := OpenSQLiteStorage(filepath.Join(t.TempDir(), "vectors.db"), cfg)
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		},
	}
}

func point(source string, index int, text string, vector ...float32) Point {
	return Point{
		ID:      PointID(source, index),
		Vector:  vector,
		Payload: Payload{Text: text, Source: source},
	}
}

func TestVectorStore_SelfRetrieval(t *testing.T) {
	for name, open := range localStores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := open(t, testCollection())
			require.NoError(t, store.EnsureCollection(ctx))

			points := []Point{
				point("a.txt", 0, "north", 1, 0, 0, 0),
				point("a.txt", 1, "east", 0, 1, 0, 0),
				point("b.txt", 0, "mostly north", 0.9, 0.1, 0, 0),
				point("b.txt", 1, "up", 0, 0, 1, 0),
			}
			require.NoError(t, store.Upsert(ctx, points))

			for _, p := range points {
				hits, err := store.Search(ctx, p.Vector, 2)
				require.NoError(t, err)
				require.NotEmpty(t, hits)
				assert.Equal(t, p.ID, hits[0].ID)
				assert.Equal(t, p.Payload, hits[0].Payload)
				assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
			}
		})
	}
}

func TestVectorStore_SearchOrderingAndLimit(t *testing.T) {
	for name, open := range localStores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := open(t, testCollection())
			require.NoError(t, store.EnsureCollection(ctx))

			require.NoError(t, store.Upsert(ctx, []Point{
				point("s", 0, "far", 0, 0, 0, 1),
				point("s", 1, "close", 1, 0.2, 0, 0),
				point("s", 2, "exact", 1, 0, 0, 0),
				point("s", 3, "near", 1, 1, 0, 0),
			}))

			hits, err := store.Search(ctx, []float32{1, 0, 0, 0}, 3)
			require.NoError(t, err)
			require.Len(t, hits, 3)
			assert.Equal(t, "exact", hits[0].Payload.Text)
			assert.Equal(t, "close", hits[1].Payload.Text)
			assert.Equal(t, "near", hits[2].Payload.Text)
			for i := 1; i < len(hits); i++ {
				assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score)
			}
		})
	}
}

func TestVectorStore_UpsertOverwritesByID(t *testing.T) {
	for name, open := range localStores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := open(t, testCollection())
			require.NoError(t, store.EnsureCollection(ctx))

			require.NoError(t, store.Upsert(ctx, []Point{
				point("doc", 0, "first version", 1, 0, 0, 0),
				point("doc", 1, "stale tail", 0, 1, 0, 0),
			}))
			require.NoError(t, store.Upsert(ctx, []Point{
				point("doc", 0, "second version", 0, 0, 1, 0),
			}))

			count, err := store.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, uint64(2), count, "index 1 survives a shorter re-ingest")

			hits, err := store.Search(ctx, []float32{0, 0, 1, 0}, 1)
			require.NoError(t, err)
			require.Len(t, hits, 1)
			assert.Equal(t, "doc_0", hits[0].ID)
			assert.Equal(t, "second version", hits[0].Payload.Text)
		})
	}
}

func TestVectorStore_EmptyCollection(t *testing.T) {
	for name, open := range localStores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := open(t, testCollection())
			require.NoError(t, store.EnsureCollection(ctx))

			hits, err := store.Search(ctx, []float32{1, 0, 0, 0}, 3)
			require.NoError(t, err)
			assert.Empty(t, hits)
		})
	}
}

func TestVectorStore_DimensionValidation(t *testing.T) {
	for name, open := range localStores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := open(t, testCollection())
			require.NoError(t, store.EnsureCollection(ctx))

			err := store.Upsert(ctx, []Point{
				point("ok", 0, "fine", 1, 0, 0, 0),
				point("bad", 0, "short", 1, 0),
			})
			assert.ErrorIs(t, err, ErrDimensionMismatch)

			count, err := store.Count(ctx)
			require.NoError(t, err)
			assert.Zero(t, count, "a rejected call stores nothing")

			_, err = store.Search(ctx, []float32{1, 0}, 3)
			assert.ErrorIs(t, err, ErrDimensionMismatch)
		})
	}
}

func TestVectorStore_EnsureCollectionIdempotent(t *testing.T) {
	for name, open := range localStores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := open(t, testCollection())
			require.NoError(t, store.EnsureCollection(ctx))
			require.NoError(t, store.Upsert(ctx, []Point{point("keep", 0, "kept", 1, 0, 0, 0)}))

			require.NoError(t, store.EnsureCollection(ctx))

			count, err := store.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, uint64(1), count)
		})
	}
}

func TestSQLiteStorage_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "persist.db")

	store, err := OpenSQLiteStorage(path, testCollection())
	require.NoError(t, err)
	require.NoError(t, store.EnsureCollection(ctx))
	require.NoError(t, store.Upsert(ctx, []Point{point("p", 0, "survives restart", 0, 1, 0, 0)}))
	require.NoError(t, store.Close())

	reopened, err := OpenSQLiteStorage(path, testCollection())
	require.NoError(t, err)
	defer reopened.Close()
	require.NoError(t, reopened.EnsureCollection(ctx))

	hits, err := reopened.Search(ctx, []float32{0, 1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "survives restart", hits[0].Payload.Text)
}

func TestSQLiteStorage_CollectionMismatch(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "mismatch.db")

	store, err := OpenSQLiteStorage(path, testCollection())
	require.NoError(t, err)
	require.NoError(t, store.EnsureCollection(ctx))
	require.NoError(t, store.Close())

	cfg := testCollection()
	cfg.Dimension = 8
	other, err := OpenSQLiteStorage(path, cfg)
	require.NoError(t, err)
	defer other.Close()

	assert.ErrorIs(t, other.EnsureCollection(ctx), ErrCollectionMismatch)
}

func TestMemoryStorage_RequiresCollection(t *testing.T) {
	store := NewMemoryStorage(testCollection())
	err := store.Upsert(context.Background(), []Point{point("x", 0, "x", 1, 0, 0, 0)})
	assert.ErrorIs(t, err, ErrCollectionNotFound)
}

func TestScore(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}

	assert.InDelta(t, 1.0, score(DistanceCosine, a, a), 1e-9)
	assert.InDelta(t, 0.0, score(DistanceCosine, a, b), 1e-9)
	assert.InDelta(t, 0.0, score(DistanceCosine, a, []float32{0, 0}), 1e-9)
	assert.InDelta(t, 1.0, score(DistanceDot, a, a), 1e-9)
	assert.InDelta(t, 1.0, score(DistanceEuclid, a, a), 1e-9)
	assert.Less(t, score(DistanceEuclid, a, b), 1.0)
}

func TestParseDistance(t *testing.T) {
	d, err := ParseDistance("Cosine")
	require.NoError(t, err)
	assert.Equal(t, DistanceCosine, d)

	d, err = ParseDistance("")
	require.NoError(t, err)
	assert.Equal(t, DistanceCosine, d)

	_, err = ParseDistance("manhattan")
	assert.Error(t, err)
}

func TestPointID(t *testing.T) {
	assert.Equal(t, "report.pdf_3", PointID("report.pdf", 3))
	assert.Equal(t, wireID("report.pdf_3"), wireID(PointID("report.pdf", 3)))
	assert.NotEqual(t, wireID("a_1"), wireID("a_2"))
}

func TestBlobRoundTrip(t *testing.T) {
	v := []float32{0.25, -1.5, 3e-7, 42}
	assert.Equal(t, v, blobToVector(vectorToBlob(v)))
}
