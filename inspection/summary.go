package inspection

// Part groups of a Summary.
const (
	GroupBumpers = "bumpers"
	GroupDoors   = "doors"
	GroupBody    = "body"
)

// PartGroups maps part class names to the Summary group they are reported in.
// Parts not listed are left out of summaries.
var PartGroups = map[string]string{
	"front_bumper":     GroupBumpers,
	"back_bumper":      GroupBumpers,
	"back_left_door":   GroupDoors,
	"back_right_door":  GroupDoors,
	"front_left_door":  GroupDoors,
	"front_right_door": GroupDoors,
	"hood":             GroupBody,
	"front_glass":      GroupBody,
	"back_glass":       GroupBody,
}

// Summary is the grouped inspection result returned by the HTTP API.
type Summary struct {
	Bumpers []string `json:"bumpers"`
	Doors   []string `json:"doors"`
	Body    []string `json:"body"`
	Status  string   `json:"status"`
}

// Summarize groups a report by body area. Each group first lists its damaged
// parts as "part (damage)", then the detected parts without damage by name.
// Entries are unique within a group.
func Summarize(r *Report) Summary {
	s := Summary{
		Bumpers: []string{},
		Doors:   []string{},
		Body:    []string{},
		Status:  string(r.DirtState),
	}

	damagedParts := make(map[string]bool)
	for _, d := range r.DamagedParts {
		damagedParts[d.Part] = true
		s.add(d.Part, d.String())
	}
	for _, p := range r.Parts {
		if !damagedParts[p.Label] {
			s.add(p.Label, p.Label)
		}
	}
	return s
}

func (s *Summary) add(part, entry string) {
	var group *[]string
	switch PartGroups[part] {
	case GroupBumpers:
		group = &s.Bumpers
	case GroupDoors:
		group = &s.Doors
	case GroupBody:
		group = &s.Body
	default:
		return
	}
	for _, e := range *group {
		if e == entry {
			return
		}
	}
	*group = append(*group, entry)
}
