package services

import (
	"math"
	"sort"

	"github.com/groovematch/groovematch/internal/models"
)

// scoreWeights weight the five hit tiers, best to worst, when ranking
// participants within a room. The score is only used for ordering.
var scoreWeights = [5]int{5, 3, 2, 1, 0}

// placementBonuses grant a one-time starting rating to a player finishing
// their first match, sized by how clean the run was: fewer non-perfect hits,
// higher bonus. Ordered by threshold ascending; the last entry is the
// catch-all.
var placementBonuses = []struct {
	maxImperfect int
	rating       int
}{
	{15, 2000},
	{50, 1000},
	{math.MaxInt, 0},
}

// positionMultipliers maps room size to per-rank delta multipliers,
// first place to last. Each table decreases monotonically and carries the
// slight positive bias of the five-player table it was extended from.
var positionMultipliers = map[int][]float64{
	2: {2, -1.5},
	3: {3, 0.5, -2},
	4: {3, 1.5, -0.5, -2},
	5: {3, 2, 0.5, -1, -2},
}

// baseDeltaLimit bounds the unscaled per-rank delta
const baseDeltaLimit = 39

// PerformanceRecord is one participant's submitted result plus their stored
// rating state, in submission order.
type PerformanceRecord struct {
	PlayerID string
	Country  string
	// Counts holds hit counts per tier, best to worst
	// (perfect, great, good, bad, miss).
	Counts [5]int
	Rating int
	Tier   string
}

// Score computes the weighted hit total used to rank participants
func Score(counts [5]int) int {
	total := 0
	for i, c := range counts {
		total += c * scoreWeights[i]
	}
	return total
}

// PlacementBonus returns the one-time starting rating for an unrated player
// based on their first-match hit counts, together with the tier that rating
// lands in. Deterministic in the counts alone.
func PlacementBonus(counts [5]int) (int, string) {
	imperfect := 0
	for _, c := range counts[1:] {
		imperfect += c
	}
	for _, b := range placementBonuses {
		if imperfect <= b.maxImperfect {
			return b.rating, models.TierForRating(b.rating)
		}
	}
	// unreachable: the last threshold is MaxInt
	return 0, models.TierBronze
}

// ComputeTransactions ranks the submitted records and produces one rating
// transaction per participant: placement normalization for unrated players,
// then a positional delta scaled by how far the player's rating sits from
// the room average (underdog wins are boosted, favorite wins dampened, and
// symmetrically for losses).
//
// The returned transactions are in rank order. Callers apply them to the
// store independently; this function never touches persistence.
func ComputeTransactions(records []PerformanceRecord) []models.RatingTransaction {
	n := len(records)
	if n == 0 {
		return nil
	}

	type scored struct {
		rec   PerformanceRecord
		score int
		// mmrActual is the rating used for delta math: the stored rating,
		// or the placement bonus for a previously unrated player.
		mmrActual int
		bonus     bool
	}

	ranked := make([]scored, n)
	for i, rec := range records {
		s := scored{rec: rec, score: Score(rec.Counts), mmrActual: rec.Rating}
		if rec.Tier == models.TierPlacement && rec.Rating == 0 {
			s.mmrActual, _ = PlacementBonus(rec.Counts)
			s.bonus = true
		}
		ranked[i] = s
	}
	// Rank by score descending; stable keeps submission order on ties.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	sum := 0
	for _, s := range ranked {
		sum += s.mmrActual
	}
	avg := float64(sum) / float64(n)

	unit := int(math.Floor(avg / 20))
	if unit < 1 {
		unit = 1
	}

	// A room can shrink outside the table after voting starts (a player may
	// leave an active room). With no full field there is no positional
	// delta; placement normalization still applies.
	mults, ok := positionMultipliers[n]
	if !ok {
		mults = make([]float64, n)
	}
	txs := make([]models.RatingTransaction, n)
	for i, s := range ranked {
		base := int(math.Round(mults[i] * float64(unit)))
		if base > baseDeltaLimit {
			base = baseDeltaLimit
		} else if base < -baseDeltaLimit {
			base = -baseDeltaLimit
		}

		var rel float64
		if avg > 0 {
			rel = (float64(s.mmrActual) - avg) / avg
		}
		var scale float64
		switch i {
		case 0:
			scale = 1 + clampFloat(-rel, -0.5, 0.5)
		case n - 1:
			scale = 1 + clampFloat(rel, -0.5, 0.5)
		default:
			scale = 1 - math.Min(math.Abs(rel), 0.5)
		}

		delta := int(math.Floor(float64(base) * scale))
		result := s.mmrActual + delta
		if result < 0 {
			result = 0
		}

		txs[i] = models.RatingTransaction{
			PlayerID:       s.rec.PlayerID,
			Country:        s.rec.Country,
			Rank:           i + 1,
			Score:          s.score,
			Previous:       s.mmrActual,
			Delta:          delta,
			Result:         result,
			Tier:           models.TierForRating(result),
			PlacementBonus: s.bonus,
		}
	}
	return txs
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
