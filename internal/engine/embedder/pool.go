package embedder

import "math"

// meanPool averages transformer hidden states over the real (non-padding)
// tokens of each sequence.
//
// hidden: flat [batchSize * seqLen * dim] per-token hidden states
// mask:   flat [batchSize * seqLen], 1 for real tokens and 0 for padding
//
// Returns flat [batchSize * dim]. A sequence with no real tokens pools to
// the zero vector.
func meanPool(hidden []float32, mask []int64, batchSize, seqLen, dim int64) []float32 {
	out := make([]float32, batchSize*dim)

	for b := int64(0); b < batchSize; b++ {
		acc := out[b*dim : (b+1)*dim]
		var count float32
		for s := int64(0); s < seqLen; s++ {
			if mask[b*seqLen+s] != 1 {
				continue
			}
			count++
			tok := hidden[(b*seqLen+s)*dim : (b*seqLen+s+1)*dim]
			for d, v := range tok {
				acc[d] += v
			}
		}
		if count == 0 {
			continue
		}
		inv := 1 / count
		for d := range acc {
			acc[d] *= inv
		}
	}

	return out
}

// normalize scales vec in place to unit L2 norm. The zero vector is left
// unchanged.
func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range vec {
		vec[i] *= inv
	}
}
