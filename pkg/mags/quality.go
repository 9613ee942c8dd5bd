package mags

// ContaminationWeight is the penalty applied per percent of contamination.
const ContaminationWeight = 5.0

// QualityScore is completeness - 5 x contamination. Inputs are percentages
// and are not range-checked or clamped, so heavily contaminated genomes get
// very negative scores.
func QualityScore(completeness, contamination float64) float64 {
	return completeness - ContaminationWeight*contamination
}

// IndexQuality keys quality records by genome. The first record for a
// genome wins.
func IndexQuality(records []Quality) map[string]Quality {
	idx := make(map[string]Quality, len(records))
	for _, q := range records {
		if _, ok := idx[q.ID]; !ok {
			idx[q.ID] = q
		}
	}
	return idx
}

// HighQuality returns the set of genomes whose quality score reaches minQS.
func HighQuality(records []Quality, minQS float64) IDSet {
	out := make(IDSet)
	for id, q := range IndexQuality(records) {
		if q.QS() >= minQS {
			out.Add(id)
		}
	}
	return out
}
