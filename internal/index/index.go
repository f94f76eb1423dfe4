package index

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nsharma/interviewally/internal/engine"
)

// Index stores embedded chunks in Postgres and answers similarity queries.
// Upserts are keyed on the chunk ID, which the engine derives from the
// interview ID and chunk order, so re-indexing an interview overwrites the
// previous vectors instead of duplicating them.
type Index struct {
	db       *pgxpool.Pool
	embedder Embedder
}

func New(db *pgxpool.Pool, embedder Embedder) *Index {
	return &Index{db: db, embedder: embedder}
}

// ScoredChunk is a retrieval hit with its cosine similarity to the query.
type ScoredChunk struct {
	Chunk engine.ChunkRecord `json:"chunk"`
	Score float64            `json:"score"`
}

// IndexChunks embeds the chunk records and upserts them for the interview.
func (x *Index) IndexChunks(ctx context.Context, interviewID string, chunks []engine.ChunkRecord) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = embeddingText(c)
	}
	vectors, err := x.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}

	// Re-processing can emit fewer chunks than the previous run; clear the
	// interview's old rows so stale chunks don't survive the upsert.
	if err := x.DeleteChunks(ctx, interviewID); err != nil {
		return fmt.Errorf("failed to clear previous chunks: %w", err)
	}

	for i, c := range chunks {
		_, err := x.db.Exec(ctx, `
			INSERT INTO interview_chunks (chunk_id, interview_id, role_question, text_question, role_answer, text_answer,
			                              start_seconds, end_seconds, topic, question_type, estimated_duration, embedding)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (chunk_id) DO UPDATE SET
				role_question = EXCLUDED.role_question,
				text_question = EXCLUDED.text_question,
				role_answer = EXCLUDED.role_answer,
				text_answer = EXCLUDED.text_answer,
				start_seconds = EXCLUDED.start_seconds,
				end_seconds = EXCLUDED.end_seconds,
				topic = EXCLUDED.topic,
				question_type = EXCLUDED.question_type,
				estimated_duration = EXCLUDED.estimated_duration,
				embedding = EXCLUDED.embedding
		`, c.ID, interviewID, c.RoleQuestion, c.TextQuestion, c.RoleAnswer, c.TextAnswer,
			c.Start, c.End, c.Topic, c.QuestionType, c.EstimatedDuration, vectors[i])
		if err != nil {
			return fmt.Errorf("failed to upsert chunk %s: %w", c.ID, err)
		}
	}
	return nil
}

// Search embeds the query and returns the k most similar chunks of the
// interview, best first.
func (x *Index) Search(ctx context.Context, interviewID, query string, k int) ([]ScoredChunk, error) {
	vectors, err := x.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	chunks, embeddings, err := x.loadChunks(ctx, interviewID)
	if err != nil {
		return nil, err
	}
	return rankChunks(chunks, embeddings, vectors[0], k), nil
}

// ListChunks returns all stored chunks for an interview in chunk order.
func (x *Index) ListChunks(ctx context.Context, interviewID string) ([]engine.ChunkRecord, error) {
	chunks, _, err := x.loadChunks(ctx, interviewID)
	return chunks, err
}

// DeleteChunks removes all chunks for an interview.
func (x *Index) DeleteChunks(ctx context.Context, interviewID string) error {
	_, err := x.db.Exec(ctx, `DELETE FROM interview_chunks WHERE interview_id = $1`, interviewID)
	return err
}

func (x *Index) loadChunks(ctx context.Context, interviewID string) ([]engine.ChunkRecord, [][]float32, error) {
	rows, err := x.db.Query(ctx, `
		SELECT chunk_id, role_question, text_question, role_answer, text_answer,
		       start_seconds, end_seconds, topic, question_type, estimated_duration, embedding
		FROM interview_chunks
		WHERE interview_id = $1
		ORDER BY chunk_id ASC
	`, interviewID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var chunks []engine.ChunkRecord
	var embeddings [][]float32
	for rows.Next() {
		var c engine.ChunkRecord
		var vec []float32
		if err := rows.Scan(&c.ID, &c.RoleQuestion, &c.TextQuestion, &c.RoleAnswer, &c.TextAnswer,
			&c.Start, &c.End, &c.Topic, &c.QuestionType, &c.EstimatedDuration, &vec); err != nil {
			return nil, nil, err
		}
		chunks = append(chunks, c)
		embeddings = append(embeddings, vec)
	}
	return chunks, embeddings, rows.Err()
}

// embeddingText is what gets embedded for a chunk: question and answer
// together so retrieval matches on either side of the exchange.
func embeddingText(c engine.ChunkRecord) string {
	if c.TextQuestion == "" {
		return fmt.Sprintf("%s: %s", c.RoleAnswer, c.TextAnswer)
	}
	return fmt.Sprintf("%s: %s\n%s: %s", c.RoleQuestion, c.TextQuestion, c.RoleAnswer, c.TextAnswer)
}

// rankChunks scores every chunk against the query vector and returns the
// top k, best first. Ties keep chunk order, which is stable across runs.
func rankChunks(chunks []engine.ChunkRecord, embeddings [][]float32, query []float32, k int) []ScoredChunk {
	scored := make([]ScoredChunk, 0, len(chunks))
	for i, c := range chunks {
		scored = append(scored, ScoredChunk{Chunk: c, Score: cosineSimilarity(query, embeddings[i])})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if k > 0 && len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
