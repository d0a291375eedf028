package batch

// ItemStatus is the processing outcome of a single batch item.
type ItemStatus string

// Batch item status values.
const (
	StatusOK    ItemStatus = "ok"
	StatusError ItemStatus = "error"
)

// Result is the outcome of processing one item in a batch operation.
type Result struct {
	id     string
	status ItemStatus
	err    error
}

// NewOK creates a successful batch result.
func NewOK(id string) Result { return Result{id: id, status: StatusOK} }

// NewError creates a failed batch result.
func NewError(id string, err error) Result { return Result{id: id, status: StatusError, err: err} }

// ID returns the item identifier.
func (r Result) ID() string { return r.id }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// Report summarizes a batch so callers learn how many items succeeded and failed.
type Report struct {
	Results   []Result
	Succeeded int
	Failed    int
}

// NewReport tallies per-item results.
func NewReport(results []Result) Report {
	r := Report{Results: results}
	for _, res := range results {
		if res.Status() == StatusOK {
			r.Succeeded++
		} else {
			r.Failed++
		}
	}
	return r
}

// Errors returns only the failed items.
func (r Report) Errors() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Status() == StatusError {
			out = append(out, res)
		}
	}
	return out
}
