package classifier

import (
	"hash/fnv"

	"beruang/domain"
	"beruang/normalize"
)

// HashingEmbedder turns text into a fixed-size bag-of-words vector using
// the hashing trick. The size must match the feature count the model was
// trained with. Safe for concurrent use; it holds no per-call state.
type HashingEmbedder struct {
	size int
	meta domain.VocabMeta
}

func NewHashingEmbedder(size int, meta domain.VocabMeta) *HashingEmbedder {
	return &HashingEmbedder{size: size, meta: meta}
}

// Embed cleans and autocorrects the text the same way the sequence layer
// does, then hashes each token to a vector slot. Binary features are more
// robust than counts for short chat messages.
func (e *HashingEmbedder) Embed(text string) ([]float64, error) {
	vec := make([]float64, e.size)
	tokens := normalize.AutoCorrect(normalize.Clean(text), e.meta.WordIndex)
	for _, w := range tokens {
		h := fnv.New32a()
		h.Write([]byte(w))
		vec[int(h.Sum32())%e.size] = 1.0
	}
	return vec, nil
}
