package model

// ProviderMode identifies which backend a data provider is operating against.
type ProviderMode string

const (
	ProviderModeFixture ProviderMode = "fixture"
	ProviderModeLive    ProviderMode = "live"
)

// ReportStyle selects the tone of the generated comparison narrative.
// It changes prompt phrasing only, never the response schema.
type ReportStyle string

const (
	StyleCasual     ReportStyle = "casual"
	StyleDataDriven ReportStyle = "data-driven"
)

// BusinessProfile is a point-in-time snapshot of one business's public
// attributes. Profiles are constructed by a data provider and never
// mutated afterwards.
type BusinessProfile struct {
	Name           string   `json:"name"`
	Website        string   `json:"website,omitempty"`
	Address        string   `json:"address,omitempty"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
	Rating         float64  `json:"rating"`
	RatingCount    int      `json:"rating_count"`
	ImageCount     int      `json:"image_count"`
	Category       string   `json:"category"`
	HasHours       bool     `json:"has_hours"`
	HasDescription bool     `json:"has_description"`
	HasMenuLink    bool     `json:"has_menu_link"`
	HasPriceLevel  bool     `json:"has_price_level"`
}

// CompletenessScore summarizes how fully the profile's informational
// fields are populated, in [0.0, 1.0]. Each of the hours/description/menu
// flags contributes a third of the base score; having any reviews or any
// images adds 0.1 each, capped at 1.0.
func (p BusinessProfile) CompletenessScore() float64 {
	completed := 0
	for _, flag := range []bool{p.HasHours, p.HasDescription, p.HasMenuLink} {
		if flag {
			completed++
		}
	}

	score := float64(completed) / 3.0
	if p.RatingCount > 0 {
		score += 0.1
	}
	if p.ImageCount > 0 {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
