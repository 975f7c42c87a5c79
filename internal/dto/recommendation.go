package dto

// RecommendationQuery asks the similarity engine for top-K resources on a topic.
type RecommendationQuery struct {
	Topic string `form:"topic" json:"topic" validate:"required"`
	TopK  int    `form:"top_k" json:"top_k" validate:"omitempty,min=1,max=50"`
	Type  string `form:"type" json:"type"`
}

// Recommendation is one scored resource suggestion.
type Recommendation struct {
	ResourceID string  `json:"resource_id"`
	Title      string  `json:"title"`
	Type       string  `json:"type"`
	URL        string  `json:"url,omitempty"`
	Confidence float64 `json:"confidence"`
}
