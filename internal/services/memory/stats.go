package memory

// IncrementalMean folds a new observation into a running mean without keeping
// the full series. count is the number of observations including the new one,
// so count == 1 returns value exactly.
func IncrementalMean(mean, value float64, count uint64) float64 {
	if count <= 1 {
		return value
	}
	return (mean*float64(count-1) + value) / float64(count)
}
