package domain

import "math"

// ScoreVectors computes the similarity of two vectors under the given
// metric, normalised to [0,1] where higher is better:
//
//	cosine     (1+cos)/2
//	dot        raw dot product (comparable when vectors are unit length)
//	euclidean  1/(1+distance)
//
// Vector indexes apply this at the query boundary so callers never see
// raw distances. Vectors of different lengths come from different
// embedding models and are never comparable; they score zero.
func ScoreVectors(metric DistanceMetric, a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	switch metric {
	case MetricEuclidean:
		return 1 / (1 + euclideanDistance(a, b))
	case MetricDotProduct:
		return dotProduct(a, b)
	default:
		return (1 + cosineSimilarity(a, b)) / 2
	}
}

// NormaliseVector scales a vector to unit length in place and returns
// it. Zero vectors are returned unchanged. Embedding adapters apply
// this when embedding.normalize is set, which makes dot-product scores
// comparable across documents.
func NormaliseVector(v []float32) []float32 {
	norm := math.Sqrt(dotProduct(v, v))
	if norm == 0 {
		return v
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}

func dotProduct(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func cosineSimilarity(a, b []float32) float64 {
	normA := math.Sqrt(dotProduct(a, a))
	normB := math.Sqrt(dotProduct(b, b))
	if normA == 0 || normB == 0 {
		return 0
	}
	return dotProduct(a, b) / (normA * normB)
}

func euclideanDistance(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var sum float64
	for i := 0; i < n; i++ {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
