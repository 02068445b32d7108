package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"localore/internal/domain/entity"
)

const (
	// cacheScoreThreshold is the minimum cosine similarity for a lookup hit.
	cacheScoreThreshold = float32(0.92)
	// cacheFreshness is how long a stored answer may be served.
	cacheFreshness = 24 * time.Hour
)

// QdrantCache stores accepted answers keyed by keyword embedding, so nearby
// keywords can reuse a recent answer instead of spending model calls.
type QdrantCache struct {
	client         *qdrant.Client
	collectionName string
	log            zerolog.Logger
}

func NewQdrantCache(client *qdrant.Client, collectionName string, log zerolog.Logger) *QdrantCache {
	return &QdrantCache{
		client:         client,
		collectionName: collectionName,
		log:            log,
	}
}

// Init creates the collection and the created_at payload index on first run.
func (s *QdrantCache) Init(ctx context.Context, dim uint64) error {
	_, err := s.client.GetCollectionInfo(ctx, s.collectionName)
	if err != nil {
		st, ok := status.FromError(err)
		if !ok || st.Code() != codes.NotFound {
			return err
		}
		err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: s.collectionName,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     dim,
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}
	}

	// The freshness filter range-queries created_at on every lookup.
	_, err = s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: s.collectionName,
		FieldName:      "created_at",
		FieldType:      qdrant.FieldType_FieldTypeInteger.Enum(),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("could not create created_at index, it may already exist")
	}

	return nil
}

// Lookup returns the best stored answer within the freshness window whose
// similarity clears the threshold, or (nil, nil) when there is none.
func (s *QdrantCache) Lookup(ctx context.Context, vector []float32) (*entity.CachedAnswer, error) {
	oldest := time.Now().Add(-cacheFreshness).Unix()
	freshness := &qdrant.Condition{
		ConditionOneOf: &qdrant.Condition_Field{
			Field: &qdrant.FieldCondition{
				Key: "created_at",
				Range: &qdrant.Range{
					Gte: qdrant.PtrOf(float64(oldest)),
				},
			},
		},
	}

	res, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collectionName,
		Query:          qdrant.NewQuery(vector...),
		Filter:         &qdrant.Filter{Must: []*qdrant.Condition{freshness}},
		Limit:          qdrant.PtrOf(uint64(1)),
		WithPayload:    qdrant.NewWithPayload(true),
		ScoreThreshold: qdrant.PtrOf(cacheScoreThreshold),
	})
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return nil, nil
	}

	hit := res[0]
	payload := hit.Payload

	s.log.Debug().
		Float32("score", hit.Score).
		Str("keyword", payload["keyword"].GetStringValue()).
		Msg("semantic cache hit")

	return &entity.CachedAnswer{
		Keyword:   payload["keyword"].GetStringValue(),
		Text:      payload["text"].GetStringValue(),
		Model:     payload["model"].GetStringValue(),
		CreatedAt: time.Unix(payload["created_at"].GetIntegerValue(), 0).UTC(),
	}, nil
}

// Save stores one accepted answer under a fresh point id.
func (s *QdrantCache) Save(ctx context.Context, keyword string, answer *entity.TriviaAnswer, vector []float32) error {
	payload := map[string]any{
		"keyword":    keyword,
		"text":       answer.Text,
		"model":      answer.Model,
		"created_at": answer.CreatedAt.Unix(),
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collectionName,
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewIDUUID(uuid.NewString()),
				Vectors: qdrant.NewVectors(vector...),
				Payload: qdrant.NewValueMap(payload),
			},
		},
	})
	return err
}
