package domain

// ProgressFunc reports pagination progress.
// Called repeatedly while fetching: (50, 286), (100, 286), ...
type ProgressFunc func(loaded, total int)

// SyncResult summarizes what happened during a populate operation.
type SyncResult struct {
	Kind      PopulationKind
	FromCache bool // true if the ledger/existence check short-circuited
	Count     int  // records written (0 when FromCache)
}

// PopulatePhase names a stage of bulk population.
type PopulatePhase string

const (
	PhaseVerses  PopulatePhase = "verses"
	PhaseTafsirs PopulatePhase = "tafsirs"
)

// PopulateProgress is reported after every bulk-population window.
type PopulateProgress struct {
	Phase     PopulatePhase
	Completed int // chapters settled so far in this phase
	Total     int
	Failed    int
}

// Fraction returns completed chapters as a value in [0, 1].
func (p PopulateProgress) Fraction() float64 {
	if p.Total == 0 {
		return 1
	}
	return float64(p.Completed) / float64(p.Total)
}

// PopulateObserver receives coarse-grained bulk population progress.
type PopulateObserver func(PopulateProgress)
