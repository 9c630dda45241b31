package node

// FrameResult records how one frame of a batch was produced.
type FrameResult struct {
	Index    int
	Fallback bool  // the frame is the unmodified or pre-step image
	Err      error // cause of the fallback, if any
}

// Report collects the per-frame results of a batch call.
type Report struct {
	Frames []FrameResult
}

// NewReport returns a report with capacity for n frames.
func NewReport(n int) Report {
	return Report{Frames: make([]FrameResult, 0, n)}
}

// Record appends the result for frame i.
func (r *Report) Record(i int, err error) {
	r.Frames = append(r.Frames, FrameResult{Index: i, Fallback: err != nil, Err: err})
}

// Skip appends a frame that was passed through without an error.
func (r *Report) Skip(i int) {
	r.Frames = append(r.Frames, FrameResult{Index: i, Fallback: true})
}

// Fallbacks counts the frames that fell back.
func (r Report) Fallbacks() int {
	n := 0
	for _, f := range r.Frames {
		if f.Fallback {
			n++
		}
	}
	return n
}

// Errors returns the non-nil per-frame errors in frame order.
func (r Report) Errors() []error {
	var errs []error
	for _, f := range r.Frames {
		if f.Err != nil {
			errs = append(errs, f.Err)
		}
	}
	return errs
}
