package dto

// SystemMetrics is a lightweight aggregate snapshot for the ops endpoint.
type SystemMetrics struct {
	RequestCount       uint64  `json:"requestCount"`
	AvgRequestMs       float64 `json:"avgRequestMs"`
	CacheHitRatio      float64 `json:"cacheHitRatio"`
	GenerationCount    uint64  `json:"generationCount"`
	AvgGenerationMs    float64 `json:"avgGenerationMs"`
	LessonsPlacedTotal uint64  `json:"lessonsPlacedTotal"`
	ConflictsTotal     uint64  `json:"conflictsTotal"`
	Goroutines         int     `json:"goroutines"`
}
