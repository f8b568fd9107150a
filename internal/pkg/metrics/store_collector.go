package metrics

// StoreStats is a snapshot of the store collection sizes.
type StoreStats struct {
	IncidentsByStatus map[string]int
	Services          int
	Users             int
	Comments          int
	Activity          int
}

// RecordStoreMetrics updates store gauges from a snapshot.
func RecordStoreMetrics(stats StoreStats) {
	for status, n := range stats.IncidentsByStatus {
		StoreIncidents.WithLabelValues(status).Set(float64(n))
	}

	StoreRecords.WithLabelValues("services").Set(float64(stats.Services))
	StoreRecords.WithLabelValues("users").Set(float64(stats.Users))
	StoreRecords.WithLabelValues("comments").Set(float64(stats.Comments))
	StoreRecords.WithLabelValues("activity").Set(float64(stats.Activity))
}
