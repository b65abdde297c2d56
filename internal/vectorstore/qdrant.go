package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/forkcast/forkcast/pkg/models"
)

// QdrantStore talks to a Qdrant instance over its HTTP API. This is the
// production driver: the ingestion pipeline populates one Qdrant
// collection per corpus partition, points carry the full recipe payload.
type QdrantStore struct {
	baseURL string
	client  *http.Client
}

// NewQdrantStore creates a Qdrant driver for the given base URL
// (e.g. http://localhost:6333).
func NewQdrantStore(baseURL string) *QdrantStore {
	return &QdrantStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *QdrantStore) Kind() string { return "qdrant" }

// ── Wire types ──────────────────────────────────────────────

type qdrantQueryRequest struct {
	Query       []float32 `json:"query"`
	Limit       int       `json:"limit"`
	WithPayload bool      `json:"with_payload"`
}

// qdrantSearchRequest is the pre-1.10 search body, kept as a fallback
// for older server versions.
type qdrantSearchRequest struct {
	Vector      []float32 `json:"vector"`
	Limit       int       `json:"limit"`
	WithPayload bool      `json:"with_payload"`
}

type qdrantPoint struct {
	ID      any            `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

type qdrantQueryResponse struct {
	Result struct {
		Points []qdrantPoint `json:"points"`
	} `json:"result"`
	Status any `json:"status"`
}

type qdrantSearchResponse struct {
	Result []qdrantPoint `json:"result"`
	Status any           `json:"status"`
}

type qdrantCollectionInfo struct {
	Result struct {
		Status      string `json:"status"`
		PointsCount int    `json:"points_count"`
	} `json:"result"`
}

// ── Operations ──────────────────────────────────────────────

// Search runs k-NN inside one collection via the modern query API,
// falling back to the legacy search endpoint on 404 of the route itself.
func (s *QdrantStore) Search(ctx context.Context, collection string, vector []float32, k int) ([]models.Hit, error) {
	url := fmt.Sprintf("%s/collections/%s/points/query", s.baseURL, collection)
	body, err := json.Marshal(qdrantQueryRequest{Query: vector, Limit: k, WithPayload: true})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	status, respBody, err := s.post(ctx, url, body)
	if err != nil {
		return nil, err
	}
	switch {
	case status == http.StatusOK:
		var qr qdrantQueryResponse
		if err := json.Unmarshal(respBody, &qr); err != nil {
			return nil, fmt.Errorf("%w: decode query response: %v", ErrUnavailable, err)
		}
		return s.toHits(collection, qr.Result.Points), nil
	case status == http.StatusNotFound && strings.Contains(string(respBody), "doesn't exist"):
		return nil, fmt.Errorf("%w: %s", ErrCollectionMissing, collection)
	case status == http.StatusNotFound:
		return s.legacySearch(ctx, collection, vector, k)
	default:
		return nil, fmt.Errorf("%w: query returned %d: %s", ErrUnavailable, status, truncate(respBody))
	}
}

func (s *QdrantStore) legacySearch(ctx context.Context, collection string, vector []float32, k int) ([]models.Hit, error) {
	url := fmt.Sprintf("%s/collections/%s/points/search", s.baseURL, collection)
	body, err := json.Marshal(qdrantSearchRequest{Vector: vector, Limit: k, WithPayload: true})
	if err != nil {
		return nil, fmt.Errorf("marshal search: %w", err)
	}

	status, respBody, err := s.post(ctx, url, body)
	if err != nil {
		return nil, err
	}
	switch {
	case status == http.StatusOK:
		var sr qdrantSearchResponse
		if err := json.Unmarshal(respBody, &sr); err != nil {
			return nil, fmt.Errorf("%w: decode search response: %v", ErrUnavailable, err)
		}
		return s.toHits(collection, sr.Result), nil
	case status == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrCollectionMissing, collection)
	default:
		return nil, fmt.Errorf("%w: search returned %d: %s", ErrUnavailable, status, truncate(respBody))
	}
}

// CollectionExists checks the collection info endpoint.
func (s *QdrantStore) CollectionExists(ctx context.Context, collection string) (bool, error) {
	status, _, err := s.get(ctx, fmt.Sprintf("%s/collections/%s", s.baseURL, collection))
	if err != nil {
		return false, err
	}
	switch status {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("%w: collection info returned %d", ErrUnavailable, status)
	}
}

// CollectionSize returns the live point count, best-effort.
func (s *QdrantStore) CollectionSize(ctx context.Context, collection string) (int, error) {
	status, respBody, err := s.get(ctx, fmt.Sprintf("%s/collections/%s", s.baseURL, collection))
	if err != nil {
		return 0, err
	}
	switch status {
	case http.StatusOK:
		var info qdrantCollectionInfo
		if err := json.Unmarshal(respBody, &info); err != nil {
			return 0, fmt.Errorf("%w: decode collection info: %v", ErrUnavailable, err)
		}
		return info.Result.PointsCount, nil
	case http.StatusNotFound:
		return 0, fmt.Errorf("%w: %s", ErrCollectionMissing, collection)
	default:
		return 0, fmt.Errorf("%w: collection info returned %d", ErrUnavailable, status)
	}
}

// HealthCheck pings the instance root.
func (s *QdrantStore) HealthCheck(ctx context.Context) error {
	status, _, err := s.get(ctx, s.baseURL+"/collections")
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: collections listing returned %d", ErrUnavailable, status)
	}
	return nil
}

// ── HTTP plumbing ───────────────────────────────────────────

func (s *QdrantStore) post(ctx context.Context, url string, body []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return s.do(req)
}

func (s *QdrantStore) get(ctx context.Context, url string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	return s.do(req)
}

func (s *QdrantStore) do(req *http.Request) (int, []byte, error) {
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}
	return resp.StatusCode, body, nil
}

// toHits converts Qdrant points into hits, tolerating the loose typing
// of payload JSON (ids and recipe_ids arrive as numbers or strings).
func (s *QdrantStore) toHits(collection string, points []qdrantPoint) []models.Hit {
	hits := make([]models.Hit, 0, len(points))
	for _, p := range points {
		recipeID := payloadString(p.Payload["recipe_id"])
		if recipeID == "" {
			recipeID = payloadString(p.ID)
		}
		if recipeID == "" {
			log.Warn().Str("collection", collection).Interface("point_id", p.ID).
				Msg("Qdrant point has no recipe_id, skipping")
			continue
		}
		hits = append(hits, models.Hit{
			RecipeID:           recipeID,
			Collection:         collection,
			SimilarityScore:    clampScore(p.Score),
			Title:              payloadString(p.Payload["title"]),
			Summary:            payloadString(p.Payload["summary"]),
			IngredientsPreview: payloadStrings(p.Payload["ingredients_preview"]),
			Confidence:         payloadFloat(p.Payload["confidence"]),
		})
	}
	return hits
}

func payloadString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatInt(int64(t), 10)
	case json.Number:
		return t.String()
	}
	return ""
}

func payloadStrings(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func payloadFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case json.Number:
		f, _ := t.Float64()
		return f
	}
	return 0
}

func truncate(body []byte) string {
	const max = 256
	if len(body) <= max {
		return string(body)
	}
	return string(body[:max]) + "…"
}
