package indexer

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/docqa/internal/chunker"
	"github.com/bull/docqa/internal/storage"
)

const testDimension = 32

// bagOfWords embeds text as hashed word counts, a deterministic stand-in for a model.
type bagOfWords struct {
	calls int
	err   error
}

func (b *bagOfWords) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	b.calls++
	if b.err != nil {
		return nil, b.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, testDimension)
		for _, w := range strings.Fields(strings.ToLower(text)) {
			h := fnv.New32a()
			h.Write([]byte(w))
			v[h.Sum32()%testDimension]++
		}
		out[i] = v
	}
	return out, nil
}

// recordingStore wraps a store and counts writes.
type recordingStore struct {
	*storage.MemoryStorage
	upserts int
	points  []storage.Point
	err     error
}

func (r *recordingStore) Upsert(ctx context.Context, points []storage.Point) error {
	r.upserts++
	if r.err != nil {
		return r.err
	}
	r.points = append(r.points, points...)
	return r.MemoryStorage.Upsert(ctx, points)
}

func newStore(t *testing.T) *recordingStore {
	mem := storage.NewMemoryStorage(storage.CollectionConfig{Dimension: testDimension})
	require.NoError(t, mem.EnsureCollection(context.Background()))
	return &recordingStore{MemoryStorage: mem}
}

func TestIngestText_BuildsPoints(t *testing.T) {
	store := newStore(t)
	p := NewPipeline(chunker.NewSplitter(12), &bagOfWords{}, store, nil)

	n, err := p.IngestText(context.Background(), "alpha beta gamma delta epsilon zeta", "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.Len(t, store.points, 3)
	for i, pt := range store.points {
		assert.Equal(t, storage.PointID("notes.txt", i), pt.ID)
		assert.Equal(t, "notes.txt", pt.Payload.Source)
		assert.Len(t, pt.Vector, testDimension)
	}
	assert.Equal(t, "alpha beta", store.points[0].Payload.Text)
	assert.Equal(t, "gamma delta", store.points[1].Payload.Text)
	assert.Equal(t, "epsilon zeta", store.points[2].Payload.Text)
}

func TestIngestText_Empty(t *testing.T) {
	store := newStore(t)
	embedder := &bagOfWords{}
	p := NewPipeline(nil, embedder, store, nil)

	n, err := p.IngestText(context.Background(), "", "empty.txt")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, store.upserts, "no points upserted")
	assert.Zero(t, embedder.calls)
}

func TestIngestText_DefaultSource(t *testing.T) {
	store := newStore(t)
	p := NewPipeline(nil, &bagOfWords{}, store, nil)

	_, err := p.IngestText(context.Background(), "some words", "")
	require.NoError(t, err)
	require.Len(t, store.points, 1)
	assert.Equal(t, "unknown_0", store.points[0].ID)
}

func TestIngestText_EmbeddingFailureWritesNothing(t *testing.T) {
	store := newStore(t)
	boom := errors.New("model offline")
	p := NewPipeline(nil, &bagOfWords{err: boom}, store, nil)

	n, err := p.IngestText(context.Background(), "some document text", "doc")
	require.Error(t, err)
	assert.Zero(t, n)
	assert.ErrorIs(t, err, ErrEmbedding)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, store.upserts)

	stage, ok := StageOf(err)
	require.True(t, ok)
	assert.Equal(t, StageEmbed, stage)
}

func TestIngestText_StoreFailure(t *testing.T) {
	store := newStore(t)
	store.err = errors.New("connection reset")
	p := NewPipeline(nil, &bagOfWords{}, store, nil)

	n, err := p.IngestText(context.Background(), "some document text", "doc")
	assert.Zero(t, n)
	assert.ErrorIs(t, err, ErrStore)
	assert.NotErrorIs(t, err, ErrEmbedding)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "doc", se.Source)
}

func TestIngestFile(t *testing.T) {
	store := newStore(t)
	p := NewPipeline(nil, &bagOfWords{}, store, nil)

	n, err := p.IngestFile(context.Background(), "/tmp/upload/people.csv", []byte("name,age\nAda,36\n"), "")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, store.points, 1)
	assert.Equal(t, "people.csv", store.points[0].Payload.Source)
	assert.Equal(t, "Ada | 36", store.points[0].Payload.Text)
}

func TestIngestFile_RejectsUnsupportedType(t *testing.T) {
	store := newStore(t)
	embedder := &bagOfWords{}
	p := NewPipeline(nil, embedder, store, nil)

	_, err := p.IngestFile(context.Background(), "setup.exe", []byte("MZ"), "")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Zero(t, embedder.calls)
	assert.Zero(t, store.upserts)
}

func TestIngestFile_ParseFailureAborts(t *testing.T) {
	store := newStore(t)
	embedder := &bagOfWords{}
	p := NewPipeline(nil, embedder, store, nil)

	_, err := p.IngestFile(context.Background(), "broken.pdf", []byte("not a pdf"), "broken.pdf")
	assert.ErrorIs(t, err, ErrParse)
	assert.Zero(t, embedder.calls, "error text is never embedded")
	assert.Zero(t, store.upserts)
}

func TestIngest_ReingestOverwritesByIndex(t *testing.T) {
	store := newStore(t)
	p := NewPipeline(chunker.NewSplitter(5), &bagOfWords{}, store, nil)
	ctx := context.Background()

	n, err := p.IngestText(ctx, "aa bb cc dd", "doc")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	n, err = p.IngestText(ctx, "fresh", "doc")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count, "doc_1 from the longer version remains")
}
