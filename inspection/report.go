package inspection

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/nvr-ai/carcheck/common"
)

// Report is the outcome of one inspection.
type Report struct {
	// Source is the inspected file, empty for in-memory images.
	Source string `json:"source,omitempty"`
	// Annotated is the written annotated image, empty when none was written.
	Annotated string `json:"annotated,omitempty"`

	Parts        []common.BoundingBox `json:"parts"`
	Damages      []common.BoundingBox `json:"damages"`
	Dirt         []common.BoundingBox `json:"dirt"`
	DamagedParts []DamagedPart        `json:"damaged_parts"`
	DirtState    DirtState            `json:"dirt_state"`
}

var (
	heading = color.New(color.FgCyan, color.Bold)
	damaged = color.New(color.FgRed)
	muted   = color.New(color.FgHiBlack)
)

// WriteText prints the console report:
//
//	🔧 Damaged parts:
//	  front_bumper (dent)
//	🧹 Dirt state:
//	  dirty
//
// In verbose mode the raw detections of every model are listed first as
// "name (0.87)". Colors follow color.NoColor.
func (r *Report) WriteText(w io.Writer, verbose bool) error {
	if verbose {
		sections := []struct {
			title string
			boxes []common.BoundingBox
		}{
			{"🚗 Parts:", r.Parts},
			{"💥 Damage:", r.Damages},
			{"💧 Dirt:", r.Dirt},
		}
		for _, s := range sections {
			if _, err := fmt.Fprintln(w, heading.Sprint(s.title)); err != nil {
				return err
			}
			if len(s.boxes) == 0 {
				if _, err := fmt.Fprintln(w, muted.Sprint("  none detected")); err != nil {
					return err
				}
			}
			for _, b := range s.boxes {
				if _, err := fmt.Fprintf(w, "  %s (%.2f)\n", b.Label, b.Confidence); err != nil {
					return err
				}
			}
		}
	}

	if _, err := fmt.Fprintln(w, heading.Sprint("🔧 Damaged parts:")); err != nil {
		return err
	}
	if len(r.DamagedParts) == 0 {
		if _, err := fmt.Fprintln(w, muted.Sprint("  none detected")); err != nil {
			return err
		}
	}
	for _, d := range r.DamagedParts {
		if _, err := fmt.Fprintln(w, damaged.Sprint("  "+d.String())); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintln(w, heading.Sprint("🧹 Dirt state:")); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "  %s\n", r.DirtState)
	return err
}
