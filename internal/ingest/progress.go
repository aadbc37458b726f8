package ingest

import "log/slog"

// Outcome is what happened to a single row.
type Outcome string

const (
	OutcomeInserted         Outcome = "inserted"
	OutcomeSkippedMissingID Outcome = "skipped_missing_id"
	OutcomeSkippedWrongYear Outcome = "skipped_wrong_year"
	OutcomeSkippedDuplicate Outcome = "skipped_duplicate"
	OutcomeFailed           Outcome = "failed"
)

// Progress is emitted after every processed row.
type Progress struct {
	RowIndex   int64 // 1-based data row index within the file
	TotalRows  int64
	Outcome    Outcome
	NaturalKey string // empty for rows skipped before identification

	// Running counters for this run.
	Processed int64
	Added     int64
	Skipped   int64
	Failed    int64
}

// Summary is the final accounting of a run.
type Summary struct {
	FileFound bool
	FileURI   string
	TotalRows int64

	RecordCount        int64 // rows evaluated this run
	RecordsAdded       int64
	RecordsSkipped     int64
	RecordsFailedToAdd int64

	LastProcessedLine int64
	CaughtUp          bool // LastProcessedLine reached TotalRows
}

// Observer receives progress events from the engine. The engine has no
// opinion about what observers do with them; a console bar, a metrics
// exporter, and the default log observer are all equally valid.
type Observer interface {
	RowProcessed(Progress)
	RunComplete(Summary)
}

type nopObserver struct{}

func (nopObserver) RowProcessed(Progress) {}
func (nopObserver) RunComplete(Summary)  {}

// LogObserver logs a progress line every interval rows and the summary at
// the end of the run.
type LogObserver struct {
	log      *slog.Logger
	interval int64
}

// NewLogObserver creates a LogObserver. An interval <= 0 disables the
// periodic lines; the summary is always logged.
func NewLogObserver(log *slog.Logger, interval int) *LogObserver {
	if log == nil {
		log = slog.Default()
	}
	return &LogObserver{log: log, interval: int64(interval)}
}

func (o *LogObserver) RowProcessed(p Progress) {
	if o.interval <= 0 || p.Processed%o.interval != 0 {
		return
	}
	o.log.Info("ingestion progress",
		"row", p.RowIndex,
		"total_rows", p.TotalRows,
		"processed", p.Processed,
		"added", p.Added,
		"skipped", p.Skipped,
		"failed", p.Failed,
	)
}

func (o *LogObserver) RunComplete(s Summary) {
	o.log.Info("ingestion summary",
		"record_count", s.RecordCount,
		"records_added", s.RecordsAdded,
		"records_skipped", s.RecordsSkipped,
		"records_failed_to_add", s.RecordsFailedToAdd,
		"last_processed_line", s.LastProcessedLine,
		"total_rows", s.TotalRows,
		"caught_up", s.CaughtUp,
	)
}
