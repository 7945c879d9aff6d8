package rank

import (
	"math"
	"sort"

	"github.com/ahmed-H20/talabatak-dispatch-go/internal/domain"
)

// Scoring weights. They are policy, not correctness: change them freely, but
// Rank must stay deterministic for a given input.
const (
	distanceWeight   = 0.3
	ratingWeight     = 0.4
	experienceWeight = 0.3

	experienceCap = 50 // completed jobs at which experienceScore saturates
)

// Candidate is a courier with its computed score, best first after Rank.
type Candidate struct {
	Courier  domain.Courier
	Distance float64 // meters from the order's store, +Inf when unknown
	Score    float64
}

// Ranker orders candidate couriers for an order.
type Ranker struct {
	radius float64
}

// New creates a Ranker. The radius normalizes the distance component.
func New(radiusMeters float64) *Ranker {
	return &Ranker{radius: radiusMeters}
}

// Rank scores candidates and returns them best first:
//
//	score = 0.3·distanceScore + 0.4·ratingScore + 0.3·experienceScore
//	distanceScore   = max(0, 1 − distance/radius)
//	ratingScore     = rating/5
//	experienceScore = min(completedJobs/50, 1)
//
// Ties are broken by courier id, so repeated calls over the same input
// produce the same ordering.
func (r *Ranker) Rank(candidates []domain.Courier, order *domain.Order) []Candidate {
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		d := domain.Distance(c.Location, order.StoreLocation)
		out = append(out, Candidate{
			Courier:  c,
			Distance: d,
			Score:    r.score(c, d),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Courier.ID < out[j].Courier.ID
	})
	return out
}

func (r *Ranker) score(c domain.Courier, distance float64) float64 {
	distanceScore := 0.0
	if !math.IsInf(distance, 1) && r.radius > 0 {
		distanceScore = math.Max(0, 1-distance/r.radius)
	}
	ratingScore := c.Rating / 5
	experienceScore := math.Min(float64(c.CompletedJobs)/experienceCap, 1)

	return distanceWeight*distanceScore + ratingWeight*ratingScore + experienceWeight*experienceScore
}
