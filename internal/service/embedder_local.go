package service

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"

	"hs-compliance/pkg/normalize"
)

const defaultLocalDimensions = 256

var tokenPattern = regexp.MustCompile(`\p{L}+|\p{N}+`)

// LocalEmbedder maps text to a bag-of-words vector with feature hashing.
// It needs no network and suits offline runs and tests.
type LocalEmbedder struct {
	dimensions int
}

func NewLocalEmbedder(dimensions int) *LocalEmbedder {
	if dimensions <= 0 {
		dimensions = defaultLocalDimensions
	}
	return &LocalEmbedder{dimensions: dimensions}
}

func (e *LocalEmbedder) Embed(ctx context.Context, text string, _ EmbeddingRole) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float32, e.dimensions)
	for _, tok := range tokenPattern.FindAllString(normalize.Term(text), -1) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		sum := h.Sum32()
		idx := int(sum % uint32(e.dimensions))
		// the top bit picks the sign so collisions tend to cancel
		if sum&(1<<31) != 0 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec, nil
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec, nil
}
