package port

import "cultura/internal/domain"

type Chunker interface {
	Chunk(passage domain.KnowledgePassage, passageIndex int) []domain.Chunk
}
