package vectorstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/forkcast/forkcast/pkg/models"
)

// PgvectorStore reads the recipe corpus from PostgreSQL with the pgvector
// extension. All eight collections live in one table, partitioned by the
// collection column. The recommendation path only reads; population is
// the ingestion pipeline's job.
type PgvectorStore struct {
	pool       *pgxpool.Pool
	dimensions int
}

// NewPgvectorStore connects and ensures the table exists, so a fresh
// database comes up empty instead of erroring on the first search.
func NewPgvectorStore(ctx context.Context, connURL string, dimensions int) (*PgvectorStore, error) {
	pool, err := pgxpool.New(ctx, connURL)
	if err != nil {
		return nil, fmt.Errorf("pgvector connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgvector ping: %w", err)
	}

	s := &PgvectorStore{pool: pool, dimensions: dimensions}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgvector migrate: %w", err)
	}

	log.Info().Int("dims", dimensions).Msg("pgvector store initialized")
	return s, nil
}

func (s *PgvectorStore) migrate(ctx context.Context) error {
	ddl := fmt.Sprintf(`
		CREATE EXTENSION IF NOT EXISTS vector;

		CREATE TABLE IF NOT EXISTS recipe_points (
			recipe_id           TEXT NOT NULL,
			collection          TEXT NOT NULL,
			title               TEXT NOT NULL DEFAULT '',
			summary             TEXT NOT NULL DEFAULT '',
			ingredients_preview JSONB NOT NULL DEFAULT '[]',
			confidence          DOUBLE PRECISION NOT NULL DEFAULT 0,
			embedding           vector(%d) NOT NULL,
			PRIMARY KEY (collection, recipe_id)
		);

		CREATE INDEX IF NOT EXISTS idx_recipe_points_collection ON recipe_points (collection);
	`, s.dimensions)

	_, err := s.pool.Exec(ctx, ddl)
	return err
}

func (s *PgvectorStore) Kind() string { return "pgvector" }

// Search scores with cosine distance; pgvector's <=> operator returns
// distance, so similarity is 1 - distance.
func (s *PgvectorStore) Search(ctx context.Context, collection string, vector []float32, k int) ([]models.Hit, error) {
	query := `SELECT recipe_id, title, summary, ingredients_preview, confidence,
		1 - (embedding <=> $1) AS score
		FROM recipe_points
		WHERE collection = $2
		ORDER BY embedding <=> $1
		LIMIT $3`

	rows, err := s.pool.Query(ctx, query, pgvectorArray(vector), collection, k)
	if err != nil {
		return nil, fmt.Errorf("%w: pgvector search: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var hits []models.Hit
	for rows.Next() {
		hit := models.Hit{Collection: collection}
		if err := rows.Scan(&hit.RecipeID, &hit.Title, &hit.Summary, &hit.IngredientsPreview, &hit.Confidence, &hit.SimilarityScore); err != nil {
			return nil, fmt.Errorf("%w: pgvector scan: %v", ErrUnavailable, err)
		}
		hit.SimilarityScore = clampScore(hit.SimilarityScore)
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: pgvector rows: %v", ErrUnavailable, err)
	}
	return hits, nil
}

// CollectionExists reports whether the collection has any points.
func (s *PgvectorStore) CollectionExists(ctx context.Context, collection string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM recipe_points WHERE collection = $1)", collection).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: pgvector exists: %v", ErrUnavailable, err)
	}
	return exists, nil
}

// CollectionSize returns the exact point count for a collection.
func (s *PgvectorStore) CollectionSize(ctx context.Context, collection string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM recipe_points WHERE collection = $1", collection).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: pgvector count: %v", ErrUnavailable, err)
	}
	return count, nil
}

func (s *PgvectorStore) HealthCheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: pgvector ping: %v", ErrUnavailable, err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PgvectorStore) Close() {
	s.pool.Close()
}

// pgvectorArray converts a vector to pgvector's text format: [1.0,2.0,3.0]
func pgvectorArray(v []float32) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(fmt.Sprintf("%g", f))
	}
	sb.WriteByte(']')
	return sb.String()
}
