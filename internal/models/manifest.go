package models

// Segment is one playable unit inside an episode.
type Segment struct {
	ID               string  `json:"id"`
	Title            string  `json:"title"`
	Type             string  `json:"type"`
	FilePath         string  `json:"file_path"`
	StartTimeSeconds float64 `json:"start_time_seconds"`
	DurationSeconds  float64 `json:"duration_seconds"`
}

// EpisodeManifest describes a generated episode for the player. The
// manifest is the only artifact the player reads; GeneratedAt is ISO-8601.
type EpisodeManifest struct {
	EpisodeID            string    `json:"episode_id"`
	Title                string    `json:"title"`
	TotalDurationSeconds float64   `json:"total_duration_seconds"`
	GeneratedAt          string    `json:"generated_at"`
	Segments             []Segment `json:"segments"`
}
