package todo

// Progress is the completion state of a list.
type Progress struct {
	ListID    string `json:"listId"`
	Name      string `json:"name"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
	Percent   int    `json:"percent"`
}

// Incomplete returns the number of open items.
func (p Progress) Incomplete() int {
	return p.Total - p.Completed
}

// Percent returns completed/total as an integer percentage rounded half-up.
// It returns 0 when total is 0.
func Percent(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return (completed*100 + total/2) / total
}

// Overall summarizes all items.
func Overall(items []Item) Progress {
	p := Progress{Name: "All"}
	for _, item := range items {
		p.Total++
		if item.IsComplete {
			p.Completed++
		}
	}
	p.Percent = Percent(p.Completed, p.Total)
	return p
}

// ComputeProgress returns one entry per list in list order. Items without a
// list, or pointing at a list that no longer exists, are counted under the
// default list, which is appended only when it has items.
func ComputeProgress(lists []List, items []Item) []Progress {
	index := make(map[string]int, len(lists))
	out := make([]Progress, 0, len(lists)+1)
	for _, l := range lists {
		index[l.ID] = len(out)
		out = append(out, Progress{ListID: l.ID, Name: l.Name})
	}

	def := Progress{ListID: DefaultListID, Name: DefaultListName}
	for _, item := range items {
		p := &def
		if i, ok := index[item.ListID]; ok && item.ListID != DefaultListID {
			p = &out[i]
		}
		p.Total++
		if item.IsComplete {
			p.Completed++
		}
	}
	if def.Total > 0 {
		out = append(out, def)
	}

	for i := range out {
		out[i].Percent = Percent(out[i].Completed, out[i].Total)
	}
	return out
}
