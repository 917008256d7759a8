package usecases

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Niraj-vaghela/MEM-Bot-Online/internal/domain/entities"
)

func chunk(id, doc, category, header string) entities.Chunk {
	return entities.Chunk{
		ID:         id,
		DocumentID: doc,
		Content:    "Header: " + header + "\n\nbody of " + id,
		Metadata:   entities.DocumentMetadata{URL: "https://help.example.org/" + doc, Category: category, Header: header},
	}
}

func TestSearchUseCase_RanksAndMaps(t *testing.T) {
	store := &mockVectorStore{chunks: []entities.Chunk{
		chunk("c1", "d1", "Member", "Opting out"),
		chunk("c2", "d2", "Member", "Refunds"),
	}}
	uc := NewSearchUseCase(&mockEmbedder{}, store)

	docs, err := uc.Retrieve(context.Background(), "opt out", "Member", 3)

	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, entities.RetrievedDocument{
		URL:      "https://help.example.org/d1",
		Category: "Member",
		Header:   "Opting out",
		BodyText: "Header: Opting out\n\nbody of c1",
		Rank:     1,
	}, docs[0])
	assert.Equal(t, 2, docs[1].Rank)
	assert.Equal(t, "Member", store.lastCat)
}

func TestSearchUseCase_CollapsesChunksOfOneArticle(t *testing.T) {
	store := &mockVectorStore{chunks: []entities.Chunk{
		chunk("c1", "d1", "Member", "Opting out"),
		chunk("c1b", "d1", "Member", "Opting out"),
		chunk("c2", "d2", "Member", "Refunds"),
		chunk("c3", "d3", "Member", "Transfers"),
	}}
	uc := NewSearchUseCase(&mockEmbedder{}, store)

	docs, err := uc.Retrieve(context.Background(), "q", "Member", 2)

	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "Opting out", docs[0].Header)
	assert.Equal(t, "Refunds", docs[1].Header)
	assert.Equal(t, 6, store.lastTopK)
}

func TestSearchUseCase_StrictCategory(t *testing.T) {
	store := &mockVectorStore{chunks: []entities.Chunk{
		chunk("c1", "d1", "Employer", "Paying in"),
	}}
	uc := NewSearchUseCase(&mockEmbedder{}, store)

	docs, err := uc.Retrieve(context.Background(), "q", "Member", 3)

	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestSearchUseCase_EmbedError(t *testing.T) {
	boom := errors.New("embedder down")
	uc := NewSearchUseCase(&mockEmbedder{embedFn: func(string) ([]float32, error) { return nil, boom }}, &mockVectorStore{})

	_, err := uc.Retrieve(context.Background(), "q", "Member", 3)

	assert.ErrorIs(t, err, boom)
}

func TestSearchUseCase_StoreError(t *testing.T) {
	boom := errors.New("db locked")
	uc := NewSearchUseCase(&mockEmbedder{}, &mockVectorStore{searchErr: boom})

	_, err := uc.Retrieve(context.Background(), "q", "Member", 3)

	assert.ErrorIs(t, err, boom)
}

func TestSearchUseCase_BlankQuery(t *testing.T) {
	uc := NewSearchUseCase(&mockEmbedder{}, &mockVectorStore{})

	docs, err := uc.Retrieve(context.Background(), "  ", "Member", 3)

	require.NoError(t, err)
	assert.Empty(t, docs)
}
