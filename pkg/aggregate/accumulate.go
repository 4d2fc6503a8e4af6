package aggregate

// RunResult is the ordered outcome of a run: admitted text records in walk
// order plus the run-level counters.
type RunResult struct {
	Records       []FileRecord
	SkippedBinary int
	TotalBytes    int64
	Truncated     bool
}

// ExtStat is the per-extension slice of the statistics.
type ExtStat struct {
	Files int
	Bytes int64
}

// Stats summarizes a run for the --stats block.
type Stats struct {
	FileCount     int
	TotalBytes    int64
	SkippedBinary int
	Truncated     bool
	PerExt        map[string]ExtStat
}

// Accumulator enforces the cumulative byte budget. The first record that
// would push the total past the budget stops admission entirely: no partial
// content, no greedy packing of smaller files later in the walk.
type Accumulator struct {
	budget        int64
	records       []FileRecord
	total         int64
	skippedBinary int
	truncated     bool
	perExt        map[string]ExtStat
}

func NewAccumulator(budget int64) *Accumulator {
	return &Accumulator{budget: budget, perExt: make(map[string]ExtStat)}
}

// Offer presents a record in walk order. Binary records are counted and
// rejected without touching the budget. Returns whether the record was
// admitted; once Truncated reports true the caller should stop offering.
func (a *Accumulator) Offer(rec FileRecord) bool {
	if a.truncated {
		return false
	}
	if rec.IsBinary {
		a.skippedBinary++
		return false
	}
	if a.total+rec.Size > a.budget {
		a.truncated = true
		return false
	}
	a.records = append(a.records, rec)
	a.total += rec.Size
	st := a.perExt[rec.Ext]
	st.Files++
	st.Bytes += rec.Size
	a.perExt[rec.Ext] = st
	return true
}

// Truncated reports whether the budget has stopped admission.
func (a *Accumulator) Truncated() bool { return a.truncated }

// Result hands the ordered records to the formatter.
func (a *Accumulator) Result() RunResult {
	return RunResult{
		Records:       a.records,
		SkippedBinary: a.skippedBinary,
		TotalBytes:    a.total,
		Truncated:     a.truncated,
	}
}

// Stats produces the final statistics block.
func (a *Accumulator) Stats() Stats {
	return Stats{
		FileCount:     len(a.records),
		TotalBytes:    a.total,
		SkippedBinary: a.skippedBinary,
		Truncated:     a.truncated,
		PerExt:        a.perExt,
	}
}
