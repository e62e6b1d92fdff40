package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"cultura/internal/domain"
)

// PassageChunker splits passages into fixed windows of at most maxChars
// runes. Consecutive windows share exactly overlap runes.
type PassageChunker struct {
	maxChars int
	overlap  int
}

func NewPassageChunker(maxChars, overlap int) (*PassageChunker, error) {
	if maxChars <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", maxChars)
	}
	if overlap < 0 || overlap >= maxChars {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", maxChars, overlap)
	}
	return &PassageChunker{
		maxChars: maxChars,
		overlap:  overlap,
	}, nil
}

// Chunk splits a passage. Ordinals are left at zero; the store assigns them
// in build order.
func (c *PassageChunker) Chunk(passage domain.KnowledgePassage, passageIndex int) []domain.Chunk {
	runes := []rune(passage.Content)
	if len(runes) == 0 {
		return nil
	}

	step := c.maxChars - c.overlap
	var chunks []domain.Chunk

	for start, n := 0, 0; ; start, n = start+step, n+1 {
		end := start + c.maxChars
		if end > len(runes) {
			end = len(runes)
		}

		chunks = append(chunks, domain.Chunk{
			ID:       generateChunkID(passage, passageIndex, n),
			Text:     string(runes[start:end]),
			Culture:  passage.Culture,
			Category: passage.Category,
		})

		if end == len(runes) {
			break
		}
	}

	return chunks
}

// ConfigKey identifies the chunking parameters for rebuild detection.
func (c *PassageChunker) ConfigKey() string {
	return fmt.Sprintf("chars=%d,overlap=%d", c.maxChars, c.overlap)
}

func generateChunkID(p domain.KnowledgePassage, passageIndex, n int) string {
	data := fmt.Sprintf("%s:%s:%d:%d", p.Culture, p.Category, passageIndex, n)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:8])
}
