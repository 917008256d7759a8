// Package vectordb provides vector store adapters: SQLite for persistence and
// an in-memory store for tests and one-shot runs.
package vectordb

import (
	"math"
	"sort"

	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/domain/entities"
)

// cosineSimilarity calculates cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// topKResults sorts by score descending, ties broken by chunk ID, and keeps k.
func topKResults(results []entities.QueryResult, k int) []entities.QueryResult {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.ID < results[j].Chunk.ID
	})
	if k >= 0 && len(results) > k {
		results = results[:k]
	}
	return results
}
