package flat

import (
	"math"
	"sync"

	"github.com/viant/vec/search"

	"github.com/arandu-labs/jurisrag/internal/logger"
)

// scorer computes the inner product of two unit vectors. The SIMD and
// scalar implementations produce the same scores; only latency differs.
type scorer interface {
	name() string
	dot(a, b []float32) float32
}

// scalarScorer is the portable fallback path.
type scalarScorer struct{}

func (scalarScorer) name() string { return "scalar" }

func (scalarScorer) dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// simdScorer uses the vectorized cosine kernel. For unit vectors the
// inner product equals 1 - cosine distance.
type simdScorer struct{}

func (simdScorer) name() string { return "simd" }

func (simdScorer) dot(a, b []float32) float32 {
	return 1 - search.Float32s(a).CosineDistanceWithMagnitudesNeon(b, 1, 1)
}

var (
	probeOnce sync.Once
	probed    scorer
)

// activeScorer probes the SIMD kernel once per process and caches the
// outcome. If the kernel panics or disagrees with the scalar path
// beyond float tolerance, scoring falls back to the scalar path with a
// warning - never a hard failure.
func activeScorer() scorer {
	probeOnce.Do(func() {
		probed = probe()
	})
	return probed
}

func probe() (s scorer) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("SIMD scoring unavailable (%v), using scalar path", r)
			s = scalarScorer{}
		}
	}()

	a := []float32{0.6, 0.0, 0.8, 0.0, 0.0, 0.0, 0.0, 0.0}
	b := []float32{0.0, 0.6, 0.8, 0.0, 0.0, 0.0, 0.0, 0.0}

	fast := simdScorer{}.dot(a, b)
	slow := scalarScorer{}.dot(a, b)
	if math.Abs(float64(fast-slow)) > 1e-3 {
		logger.Warn("SIMD scoring disagrees with scalar path (%.6f vs %.6f), using scalar path", fast, slow)
		return scalarScorer{}
	}

	logger.Debug("SIMD scoring enabled")
	return simdScorer{}
}
