package dataset

import "fmt"

// SourceMissingError reports a source split or file that does not exist.
// It is never fatal: the walk logs it and moves on.
type SourceMissingError struct {
	Path string
}

func (e *SourceMissingError) Error() string {
	return fmt.Sprintf("source missing: %s", e.Path)
}

// ParseError reports a label line whose class id token is not an integer.
type ParseError struct {
	// Path is the source label file.
	Path string
	// Line is the 1-based line number.
	Line int
	// Token is the offending class id token.
	Token string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: invalid class id %q", e.Path, e.Line, e.Token)
}

func (e *ParseError) Unwrap() error { return e.Err }

// WriteError reports a destination path that could not be written. It aborts the run.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// CollisionError reports a destination file name already written during this run
// while the consolidator runs with the CollisionFail policy.
type CollisionError struct {
	Path string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("destination collision: %s already written in this run", e.Path)
}
