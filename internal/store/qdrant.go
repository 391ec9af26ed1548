package store

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mwozniak/voicenotes/internal/model"
)

// QdrantStore is the primary Store implementation, backed by a Qdrant
// collection over gRPC.
type QdrantStore struct {
	client     *qdrant.Client
	collection string
}

// NewQdrantStore connects to Qdrant at the given URL. An empty apiKey is
// valid for unauthenticated local instances. The connection is health-checked
// before the store is returned.
func NewQdrantStore(urlStr, apiKey, collection string) (*QdrantStore, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	host := parsedURL.Hostname()
	portStr := parsedURL.Port()
	// Qdrant serves gRPC on 6334 by default (HTTP on 6333).
	port := 6334
	if portStr != "" {
		if p, err := strconv.Atoi(portStr); err == nil {
			if p == 6333 {
				// HTTP port given, switch to the gRPC one
				port = 6334
			} else {
				port = p
			}
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:                   host,
		Port:                   port,
		APIKey:                 apiKey,
		UseTLS:                 parsedURL.Scheme == "https",
		SkipCompatibilityCheck: true,
	})
	if err != nil {
		return nil, ErrConnectionFailed
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.HealthCheck(ctx); err != nil {
		return nil, ErrConnectionFailed
	}

	return &QdrantStore{
		client:     client,
		collection: collection,
	}, nil
}

func (s *QdrantStore) CollectionExists(ctx context.Context) (bool, error) {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return false, fmt.Errorf("failed to check collection existence: %w", err)
	}
	return exists, nil
}

func (s *QdrantStore) CreateCollection(ctx context.Context, dim uint64) error {
	err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dim,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

// CreateFieldIndex ensures a keyword payload index on field. Only the
// already-exists condition is swallowed; every other failure propagates.
func (s *QdrantStore) CreateFieldIndex(ctx context.Context, field string) error {
	_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: s.collection,
		FieldName:      field,
		FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil
		}
		return fmt.Errorf("failed to create field index: %w", err)
	}
	return nil
}

func (s *QdrantStore) Count(ctx context.Context) (uint64, error) {
	count, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	return count, nil
}

func (s *QdrantStore) Upsert(ctx context.Context, note *model.Note, embedding []float32) error {
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Wait:           qdrant.PtrOf(true),
		Points: []*qdrant.PointStruct{
			{
				Id:      &qdrant.PointId{PointIdOptions: &qdrant.PointId_Uuid{Uuid: note.ID}},
				Vectors: qdrant.NewVectors(embedding...),
				Payload: buildPayload(note),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upsert point: %w", err)
	}
	return nil
}

func (s *QdrantStore) Search(ctx context.Context, embedding []float32, filter Filter, limit int) ([]ScoredNote, error) {
	queryResp, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(embedding...),
		Filter:         buildFilter(filter),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query points: %w", err)
	}

	results := make([]ScoredNote, 0, len(queryResp))
	for _, point := range queryResp {
		results = append(results, ScoredNote{
			Note:  payloadToNote(point.Id, point.Payload),
			Score: float64(point.Score),
		})
	}
	return results, nil
}

func (s *QdrantStore) Scroll(ctx context.Context, filter Filter, limit int) ([]*model.Note, error) {
	scrollResp, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: s.collection,
		Filter:         buildFilter(filter),
		Limit:          qdrant.PtrOf(uint32(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scroll points: %w", err)
	}

	notes := make([]*model.Note, 0, len(scrollResp))
	for _, point := range scrollResp {
		notes = append(notes, payloadToNote(point.Id, point.Payload))
	}
	return notes, nil
}

func (s *QdrantStore) Close() error {
	if s.client != nil {
		s.client.Close()
	}
	return nil
}

// buildFilter builds the mandatory user_id filter applied on every read.
func buildFilter(filter Filter) *qdrant.Filter {
	return &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch(UserIDField, filter.UserID),
		},
	}
}

func buildPayload(note *model.Note) map[string]*qdrant.Value {
	payload := make(map[string]*qdrant.Value)
	payload["text"], _ = qdrant.NewValue(note.Text)
	payload[UserIDField], _ = qdrant.NewValue(note.UserID)
	if note.CreatedAt != "" {
		payload["created_at"], _ = qdrant.NewValue(note.CreatedAt)
	}
	return payload
}

func payloadToNote(id *qdrant.PointId, payload map[string]*qdrant.Value) *model.Note {
	note := &model.Note{}
	if id != nil {
		note.ID = id.GetUuid()
	}
	if v, ok := payload["text"]; ok {
		note.Text = v.GetStringValue()
	}
	if v, ok := payload[UserIDField]; ok {
		note.UserID = v.GetStringValue()
	}
	if v, ok := payload["created_at"]; ok {
		note.CreatedAt = v.GetStringValue()
	}
	return note
}
