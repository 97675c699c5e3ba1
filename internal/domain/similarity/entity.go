package similarity

// Entry pairs a reference text with its similarity to the query.
type Entry struct {
	ReferenceText string  `json:"reference_text"`
	Score         float64 `json:"score"`
}
