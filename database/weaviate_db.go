package database

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/tieubaoca/docqa-be/config"
	"github.com/tieubaoca/docqa-be/types"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
)

const BATCH_SIZE = 200

var (
	PASSAGE_CLASS        = "Passage"
	PASSAGE_CLASS_OBJECT = &models.Class{
		Class: PASSAGE_CLASS,
		Properties: []*models.Property{
			{Name: "content", DataType: []string{"text"}},
			{Name: "docId", DataType: []string{"text"}},
			{Name: "source", DataType: []string{"text"}},
			{Name: "ordinal", DataType: []string{"int"}},
		},
		Vectorizer:      "none",
		VectorIndexType: "hnsw",
		VectorIndexConfig: map[string]interface{}{
			"distance": "cosine",
		},
	}
)

// WeaviateIndex stores passages in a Weaviate class with caller-supplied
// vectors. Objects carry deterministic ids derived from "{docId}_{ordinal}"
// so re-ingesting a document id overwrites instead of duplicating.
type WeaviateIndex struct {
	client   *weaviate.Client
	embedder Embedder
}

func NewWeaviateIndex(cfg config.WeaviateStoreConfig, embedder Embedder) (*WeaviateIndex, error) {
	var scheme string
	if strings.Contains(cfg.Host, "https") {
		scheme = "https"
	} else {
		scheme = "http"
	}
	host := strings.TrimPrefix(cfg.Host, scheme+"://")
	clientCfg := weaviate.Config{
		Host:   host,
		Scheme: scheme,
	}
	if cfg.APIKey != "" {
		clientCfg.AuthConfig = auth.ApiKey{
			Value: cfg.APIKey,
		}
	}
	client, err := weaviate.NewClient(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create weaviate client: %v", err)
	}

	schema, err := client.Schema().Getter().Do(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to get schema: %v", err)
	}

	hasPassageClass := false
	for _, class := range schema.Classes {
		if class.Class == PASSAGE_CLASS {
			hasPassageClass = true
			break
		}
	}
	// Create Passage class if it doesn't exist
	if !hasPassageClass {
		err = client.Schema().ClassCreator().WithClass(PASSAGE_CLASS_OBJECT).Do(context.Background())
		if err != nil {
			return nil, fmt.Errorf("failed to create Passage class: %v", err)
		}
	}
	return &WeaviateIndex{
		client:   client,
		embedder: embedder,
	}, nil
}

func (s *WeaviateIndex) Ready() bool {
	return s != nil && s.client != nil
}

// ReInit drops and recreates the Passage class, discarding all passages.
func (s *WeaviateIndex) ReInit() error {
	err := s.client.Schema().ClassDeleter().WithClassName(PASSAGE_CLASS).Do(context.Background())
	if err != nil {
		return fmt.Errorf("failed to delete Passage class: %v", err)
	}

	err = s.client.Schema().ClassCreator().WithClass(PASSAGE_CLASS_OBJECT).Do(context.Background())
	if err != nil {
		return fmt.Errorf("failed to create Passage class: %v", err)
	}
	return nil
}

func (s *WeaviateIndex) InsertPassages(ctx context.Context, docID, source string, passages []string) error {
	if !s.Ready() {
		return types.ErrIndexUnavailable
	}
	embeddings, err := s.embedder.Embed(ctx, passages)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrIndexWrite, err)
	}
	if len(embeddings) != len(passages) {
		return fmt.Errorf("%w: embedder returned %d vectors for %d passages",
			types.ErrIndexWrite, len(embeddings), len(passages))
	}

	total := len(passages)
	for i := 0; i < total; i += BATCH_SIZE {
		end := i + BATCH_SIZE
		if end > total {
			end = total
		}

		batcher := s.client.Batch().ObjectsBatcher()
		for j := i; j < end; j++ {
			batcher = batcher.WithObjects(&models.Object{
				Class: PASSAGE_CLASS,
				ID:    passageObjectID(docID, j),
				Properties: map[string]interface{}{
					"content": passages[j],
					"docId":   docID,
					"source":  source,
					"ordinal": j,
				},
				Vector: embeddings[j],
			})
		}

		if _, err := batcher.Do(ctx); err != nil {
			// Roll back already-written batches so the index never holds
			// a partially-inserted document.
			if _, delErr := s.DeletePassages(ctx, docID); delErr != nil {
				log.Printf("Failed to roll back passages for document %s: %v", docID, delErr)
			}
			return fmt.Errorf("%w: batch %d-%d: %v", types.ErrIndexWrite, i, end, err)
		}
	}

	return nil
}

func (s *WeaviateIndex) DeletePassages(ctx context.Context, docID string) (bool, error) {
	if !s.Ready() {
		return false, types.ErrIndexUnavailable
	}
	where := filters.Where().
		WithPath([]string{"docId"}).
		WithOperator(filters.Equal).
		WithValueText(docID)

	resp, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(PASSAGE_CLASS).
		WithWhere(where).
		Do(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to delete passages of document %s: %v", docID, err)
	}
	if resp == nil || resp.Results == nil {
		return false, nil
	}
	return resp.Results.Matches > 0, nil
}

func (s *WeaviateIndex) Query(ctx context.Context, text string, limit int, docIDs []string) ([]PassageHit, error) {
	if !s.Ready() {
		return nil, types.ErrIndexUnavailable
	}
	vectors, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %v", err)
	}

	fields := []graphql.Field{
		{Name: "content"},
		{Name: "docId"},
		{Name: "source"},
		{Name: "ordinal"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "distance"}, {Name: "id"}}},
	}
	nearVector := s.client.GraphQL().NearVectorArgBuilder().
		WithVector(vectors[0])

	getBuilder := s.client.GraphQL().Get().
		WithClassName(PASSAGE_CLASS).
		WithFields(fields...).
		WithNearVector(nearVector)
	if limit > 0 {
		getBuilder = getBuilder.WithLimit(limit)
	}
	if len(docIDs) > 0 {
		getBuilder = getBuilder.WithWhere(filters.Where().
			WithPath([]string{"docId"}).
			WithOperator(filters.ContainsAny).
			WithValueText(docIDs...))
	}

	result, err := getBuilder.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("search failed: %v", err)
	}
	if result.Errors != nil {
		return nil, fmt.Errorf("search failed: %v", result.Errors[0].Message)
	}

	return parsePassageHits(result.Data), nil
}

// parsePassageHits maps a GraphQL Get result onto hits. Fields are read
// with checked assertions so a null or missing field degrades to the zero
// value instead of panicking.
func parsePassageHits(data map[string]models.JSONObject) []PassageHit {
	var hits []PassageHit
	get, ok := data["Get"].(map[string]interface{})
	if !ok {
		return hits
	}
	items, ok := get[PASSAGE_CLASS].([]interface{})
	if !ok {
		return hits
	}
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		var hit PassageHit
		hit.Content, _ = obj["content"].(string)
		hit.DocumentID, _ = obj["docId"].(string)
		hit.Source, _ = obj["source"].(string)
		if ordinal, ok := obj["ordinal"].(float64); ok {
			hit.Ordinal = int(ordinal)
		}
		if additional, ok := obj["_additional"].(map[string]interface{}); ok {
			if distance, ok := additional["distance"].(float64); ok {
				hit.Score = 1 - distance
			}
		}
		hits = append(hits, hit)
	}
	return hits
}

// passageObjectID derives a stable UUID from the composite passage key.
func passageObjectID(docID string, ordinal int) strfmt.UUID {
	key := fmt.Sprintf("%s_%d", docID, ordinal)
	return strfmt.UUID(uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String())
}
