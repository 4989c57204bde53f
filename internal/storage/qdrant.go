package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// maxMessageSize lifts the gRPC default (4 MiB) so a whole document fits in one upsert.
const maxMessageSize = 64 << 20

// pointNamespace seeds the UUIDv5 that stands in for a point ID on the wire.
// Qdrant only accepts UUID or integer point IDs.
var pointNamespace = uuid.MustParse("8f4b1c2e-6a3d-4f0e-9b57-2d1c9e8a7b60")

// QdrantConfig holds connection and collection settings.
type QdrantConfig struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection CollectionConfig
	// Timeout bounds every individual call. Zero disables the per-call bound.
	Timeout time.Duration
}

// QdrantStorage wraps the Qdrant client with connection management and health checks.
type QdrantStorage struct {
	client *qdrant.Client
	cfg    QdrantConfig
}

var _ VectorStore = (*QdrantStorage)(nil)

// NewQdrantStorage creates a new Qdrant client with health validation.
// It performs health check with retry on startup and fails fast if Qdrant is unreachable.
func NewQdrantStorage(ctx context.Context, cfg QdrantConfig) (*QdrantStorage, error) {
	if cfg.Collection.Name == "" {
		cfg.Collection.Name = DefaultCollectionName
	}
	if cfg.Collection.Distance == "" {
		cfg.Collection.Distance = DistanceCosine
	}
	if cfg.Collection.Dimension <= 0 {
		return nil, fmt.Errorf("invalid vector dimension %d", cfg.Collection.Dimension)
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
		GrpcOptions: []grpc.DialOption{
			grpc.WithDefaultCallOptions(
				grpc.MaxCallSendMsgSize(maxMessageSize),
				grpc.MaxCallRecvMsgSize(maxMessageSize),
			),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	storage := &QdrantStorage{
		client: client,
		cfg:    cfg,
	}

	if err := storage.retry(ctx, storage.Health); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrQdrantUnreachable, err)
	}

	return storage, nil
}

// retry runs op with exponential backoff, bounding each attempt by the call timeout.
// Initial interval 500ms, max interval 10s, max elapsed 30s.
func (s *QdrantStorage) retry(ctx context.Context, op func(context.Context) error) error {
	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = 500 * time.Millisecond
	exponentialBackoff.MaxInterval = 10 * time.Second
	exponentialBackoff.MaxElapsedTime = 30 * time.Second

	operation := func() error {
		callCtx, cancel := s.callContext(ctx)
		defer cancel()
		return classify(op(callCtx))
	}

	return backoff.Retry(operation, backoff.WithContext(exponentialBackoff, ctx))
}

// classify marks errors that a retry cannot fix as permanent.
func classify(err error) error {
	switch status.Code(err) {
	case codes.InvalidArgument, codes.NotFound, codes.AlreadyExists,
		codes.PermissionDenied, codes.Unauthenticated, codes.FailedPrecondition:
		return backoff.Permanent(err)
	}
	return err
}

func (s *QdrantStorage) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.Timeout)
}

// Health performs a single health check against Qdrant.
// Returns nil if Qdrant is healthy, error otherwise.
func (s *QdrantStorage) Health(ctx context.Context) error {
	result, err := s.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}

	return nil
}

// EnsureCollection creates the collection with the configured size and distance if it
// does not exist. An existing collection is validated, never recreated. The payload
// index on source is ensured on both paths.
func (s *QdrantStorage) EnsureCollection(ctx context.Context) error {
	name := s.cfg.Collection.Name

	var exists bool
	err := s.retry(ctx, func(ctx context.Context) error {
		var err error
		exists, err = s.client.CollectionExists(ctx, name)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}

	if !exists {
		err = s.retry(ctx, func(ctx context.Context) error {
			return s.client.CreateCollection(ctx, &qdrant.CreateCollection{
				CollectionName: name,
				VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
					Size:     uint64(s.cfg.Collection.Dimension),
					Distance: qdrantDistance(s.cfg.Collection.Distance),
				}),
			})
		})
		if err != nil {
			// Another process may have created it between the check and the create.
			if exists, existsErr := s.client.CollectionExists(ctx, name); existsErr != nil || !exists {
				return fmt.Errorf("failed to create collection: %w", err)
			}
		}
	}

	if err := s.validateCollection(ctx); err != nil {
		return err
	}
	return s.ensureSourceIndex(ctx)
}

// ensureSourceIndex creates the keyword index on source. Qdrant accepts a repeated
// request for an index with the same schema.
func (s *QdrantStorage) ensureSourceIndex(ctx context.Context) error {
	err := s.retry(ctx, func(ctx context.Context) error {
		_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: s.cfg.Collection.Name,
			FieldName:      "source",
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
			Wait:           qdrant.PtrOf(true),
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to create index for field source: %w", err)
	}
	return nil
}

// validateCollection compares the live collection against the configured parameters.
func (s *QdrantStorage) validateCollection(ctx context.Context) error {
	var info *qdrant.CollectionInfo
	err := s.retry(ctx, func(ctx context.Context) error {
		var err error
		info, err = s.client.GetCollectionInfo(ctx, s.cfg.Collection.Name)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to get collection: %w", err)
	}

	params := info.GetConfig().GetParams().GetVectorsConfig().GetParams()
	if params == nil {
		return fmt.Errorf("%w: %s uses named vectors", ErrCollectionMismatch, s.cfg.Collection.Name)
	}

	want := qdrantDistance(s.cfg.Collection.Distance)
	if params.GetSize() != uint64(s.cfg.Collection.Dimension) || params.GetDistance() != want {
		return fmt.Errorf("%w: %s has size %d distance %s, expected size %d distance %s",
			ErrCollectionMismatch, s.cfg.Collection.Name,
			params.GetSize(), params.GetDistance(), s.cfg.Collection.Dimension, want)
	}

	return nil
}

// Close closes the Qdrant client connection.
func (s *QdrantStorage) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// Upsert stores points in a single request so the call lands or fails as a whole.
// Transient failures are retried with exponential backoff.
func (s *QdrantStorage) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	if err := checkDimensions(points, s.cfg.Collection.Dimension); err != nil {
		return err
	}

	structs := make([]*qdrant.PointStruct, len(points))
	for i, p := range points {
		structs[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(wireID(p.ID)),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: qdrant.NewValueMap(map[string]any{
				"point_id": p.ID,
				"text":     p.Payload.Text,
				"source":   p.Payload.Source,
			}),
		}
	}

	err := s.retry(ctx, func(ctx context.Context) error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: s.cfg.Collection.Name,
			Wait:           qdrant.PtrOf(true),
			Points:         structs,
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to upsert %d points: %w", len(points), err)
	}

	return nil
}

// Search performs vector similarity search.
// Returns up to topK points ordered by descending similarity.
func (s *QdrantStorage) Search(ctx context.Context, vector []float32, topK int) ([]ScoredPoint, error) {
	if err := checkQuery(vector, s.cfg.Collection.Dimension); err != nil {
		return nil, err
	}
	if topK <= 0 {
		return nil, nil
	}

	var results []*qdrant.ScoredPoint
	err := s.retry(ctx, func(ctx context.Context) error {
		var err error
		results, err = s.client.Query(ctx, &qdrant.QueryPoints{
			CollectionName: s.cfg.Collection.Name,
			Query:          qdrant.NewQuery(vector...),
			Limit:          qdrant.PtrOf(uint64(topK)),
			WithPayload:    qdrant.NewWithPayload(true),
			WithVectors:    qdrant.NewWithVectors(false),
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search points: %w", err)
	}

	hits := make([]ScoredPoint, 0, len(results))
	for _, result := range results {
		payload := result.Payload
		score := float64(result.Score)
		if s.cfg.Collection.Distance == DistanceEuclid {
			// Qdrant reports the raw distance for Euclid.
			score = 1 / (1 + score)
		}

		hits = append(hits, ScoredPoint{
			Point: Point{
				ID: payload["point_id"].GetStringValue(),
				Payload: Payload{
					Text:   payload["text"].GetStringValue(),
					Source: payload["source"].GetStringValue(),
				},
			},
			Score: score,
		})
	}

	return hits, nil
}

// Count returns the exact number of points in the collection.
func (s *QdrantStorage) Count(ctx context.Context) (uint64, error) {
	var count uint64
	err := s.retry(ctx, func(ctx context.Context) error {
		var err error
		count, err = s.client.Count(ctx, &qdrant.CountPoints{
			CollectionName: s.cfg.Collection.Name,
			Exact:          qdrant.PtrOf(true),
		})
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	return count, nil
}

// wireID maps a logical point ID to the deterministic UUID used by Qdrant.
func wireID(id string) string {
	return uuid.NewSHA1(pointNamespace, []byte(id)).String()
}

func qdrantDistance(d Distance) qdrant.Distance {
	switch d {
	case DistanceDot:
		return qdrant.Distance_Dot
	case DistanceEuclid:
		return qdrant.Distance_Euclid
	default:
		return qdrant.Distance_Cosine
	}
}
