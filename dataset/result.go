package dataset

import "fmt"

// LineIssue is a label line that could not be processed.
type LineIssue struct {
	Path string
	Line int
	Err  error
}

func (i LineIssue) String() string {
	return fmt.Sprintf("%s:%d: %v", i.Path, i.Line, i.Err)
}

// Result summarizes a merge.
type Result struct {
	ImagesCopied   int
	ImagesMissing  int
	Renamed        int
	LabelsCopied   int
	LabelsRemapped int
	// LabelsDropped counts label files whose every line was dropped by the class map.
	LabelsDropped int
	// LabelsRejected counts label files refused for malformed lines.
	LabelsRejected int
	LabelsMissing  int
	LinesDropped   int
	// StaleLabelsRemoved counts destination labels deleted because their image was overwritten.
	StaleLabelsRemoved int
	Issues             []LineIssue
}

// Add accumulates o into r. A nil o is ignored.
func (r *Result) Add(o *Result) {
	if o == nil {
		return
	}
	r.ImagesCopied += o.ImagesCopied
	r.ImagesMissing += o.ImagesMissing
	r.Renamed += o.Renamed
	r.LabelsCopied += o.LabelsCopied
	r.LabelsRemapped += o.LabelsRemapped
	r.LabelsDropped += o.LabelsDropped
	r.LabelsRejected += o.LabelsRejected
	r.LabelsMissing += o.LabelsMissing
	r.LinesDropped += o.LinesDropped
	r.StaleLabelsRemoved += o.StaleLabelsRemoved
	r.Issues = append(r.Issues, o.Issues...)
}
