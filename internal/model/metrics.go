package model

import "sort"

// ComparisonMetrics holds the aggregate statistics that ground a comparison
// report in data. All fields are recomputed per request and never persisted
// on their own.
type ComparisonMetrics struct {
	CompetitorCount int `json:"competitor_count"`

	AvgCompetitorRating float64 `json:"avg_competitor_rating"`
	TopCompetitorRating float64 `json:"top_competitor_rating"`
	RatingRank          int     `json:"rating_rank"`
	RatingGapToTop      float64 `json:"rating_gap_to_top"`

	AvgCompetitorReviews float64 `json:"avg_competitor_reviews"`
	TopCompetitorReviews int     `json:"top_competitor_reviews"`
	ReviewGapToAvg       float64 `json:"review_gap_to_avg"`

	AvgCompetitorImages float64 `json:"avg_competitor_images"`
	TopCompetitorImages int     `json:"top_competitor_images"`
	ImageGapToAvg       float64 `json:"image_gap_to_avg"`
}

// DeriveMetrics computes comparison metrics for a user profile against its
// competitor set. With no competitors the averages and tops fall back to the
// user's own values and the rank is 1 of 1.
//
// Rating rank is 1-indexed over {user} ∪ competitors sorted descending by
// rating; ties keep discovery order, with the user sorting ahead of any
// competitor with an identical rating. Gap values are clamped at zero.
func DeriveMetrics(user BusinessProfile, competitors []BusinessProfile) ComparisonMetrics {
	m := ComparisonMetrics{
		CompetitorCount: len(competitors),
		RatingRank:      1,
	}

	if len(competitors) == 0 {
		m.AvgCompetitorRating = user.Rating
		m.TopCompetitorRating = user.Rating
		m.AvgCompetitorReviews = float64(user.RatingCount)
		m.TopCompetitorReviews = user.RatingCount
		m.AvgCompetitorImages = float64(user.ImageCount)
		m.TopCompetitorImages = user.ImageCount
		return m
	}

	var ratingSum, reviewSum, imageSum float64
	for _, c := range competitors {
		ratingSum += c.Rating
		reviewSum += float64(c.RatingCount)
		imageSum += float64(c.ImageCount)

		if c.Rating > m.TopCompetitorRating {
			m.TopCompetitorRating = c.Rating
		}
		if c.RatingCount > m.TopCompetitorReviews {
			m.TopCompetitorReviews = c.RatingCount
		}
		if c.ImageCount > m.TopCompetitorImages {
			m.TopCompetitorImages = c.ImageCount
		}
	}

	n := float64(len(competitors))
	m.AvgCompetitorRating = ratingSum / n
	m.AvgCompetitorReviews = reviewSum / n
	m.AvgCompetitorImages = imageSum / n

	m.RatingRank = ratingRank(user, competitors)
	m.RatingGapToTop = clampGap(m.TopCompetitorRating - user.Rating)
	m.ReviewGapToAvg = clampGap(m.AvgCompetitorReviews - float64(user.RatingCount))
	m.ImageGapToAvg = clampGap(m.AvgCompetitorImages - float64(user.ImageCount))

	return m
}

// ratingRank sorts the full set descending by rating. Index 0 marks the
// user so that equal ratings resolve in the user's favor and competitor
// ties keep discovery order (the sort is stable).
func ratingRank(user BusinessProfile, competitors []BusinessProfile) int {
	type entry struct {
		index  int
		rating float64
	}

	entries := make([]entry, 0, len(competitors)+1)
	entries = append(entries, entry{index: 0, rating: user.Rating})
	for i, c := range competitors {
		entries = append(entries, entry{index: i + 1, rating: c.Rating})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].rating > entries[j].rating
	})

	for pos, e := range entries {
		if e.index == 0 {
			return pos + 1
		}
	}
	return 1
}

func clampGap(gap float64) float64 {
	if gap < 0 {
		return 0
	}
	return gap
}
