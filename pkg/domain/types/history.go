package types

type historyMode int

const (
	historyAll historyMode = iota
	historyCurrentOnly
	historyMostRecent
)

// HistorySelection selects which snapshots of a host a history query returns.
// The HTTP edge maps the agent-facing signed limit parameter onto this type:
// negative means everything, zero means only the current snapshot, positive
// means the N most recent.
type HistorySelection struct {
	mode historyMode
	n    int
}

// AllScans selects the full history of a host, newest first.
func AllScans() HistorySelection {
	return HistorySelection{mode: historyAll}
}

// CurrentOnly selects the snapshot currently marked most recent, if any.
func CurrentOnly() HistorySelection {
	return HistorySelection{mode: historyCurrentOnly}
}

// MostRecent selects the n newest snapshots by scan timestamp. A negative n
// is normalized to AllScans so no backend ever sees a negative row cap.
func MostRecent(n int) HistorySelection {
	if n < 0 {
		return AllScans()
	}
	return HistorySelection{mode: historyMostRecent, n: n}
}

// HistoryFromLimit converts the wire-level signed limit into a selection.
func HistoryFromLimit(limit int) HistorySelection {
	switch {
	case limit < 0:
		return AllScans()
	case limit == 0:
		return CurrentOnly()
	default:
		return MostRecent(limit)
	}
}

func (x HistorySelection) IsAll() bool         { return x.mode == historyAll }
func (x HistorySelection) IsCurrentOnly() bool { return x.mode == historyCurrentOnly }

// Limit returns the row cap and true when the selection is MostRecent.
func (x HistorySelection) Limit() (int, bool) {
	if x.mode != historyMostRecent {
		return 0, false
	}
	return x.n, true
}
