package text

import (
	"hash/fnv"
	"math"
)

// VectorDim is the dimensionality of hashed term vectors. Collisions at
// this size are rare for statement-length inputs and do not change the
// relative ordering of similarities.
const VectorDim = 256

// TermVector maps content tokens into a fixed-size L2-normalized
// frequency vector via feature hashing. The mapping is deterministic:
// equal text always produces an equal vector.
func TermVector(s string) []float32 {
	vec := make([]float32, VectorDim)
	for token, count := range Frequencies(s) {
		h := fnv.New32a()
		h.Write([]byte(token))
		vec[h.Sum32()%VectorDim] += float32(count)
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	inv := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= inv
	}
	return vec
}

// Cosine returns the cosine similarity of two vectors. Mismatched lengths
// or zero vectors yield 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Jaccard returns the token-set overlap of two texts: the size of the
// intersection of their content tokens over the size of the union.
// Two empty sets count as identical.
func Jaccard(a, b string) float64 {
	setA := TokenSet(a)
	setB := TokenSet(b)

	if len(setA) == 0 && len(setB) == 0 {
		return 1.0
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0.0
	}

	intersection := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

// Overlap returns the fraction of a's content tokens that also appear in b.
// Unlike Jaccard it is asymmetric, which suits retention checks where only
// loss from the original matters.
func Overlap(a, b string) float64 {
	setA := TokenSet(a)
	if len(setA) == 0 {
		return 1.0
	}
	setB := TokenSet(b)
	retained := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			retained++
		}
	}
	return float64(retained) / float64(len(setA))
}
