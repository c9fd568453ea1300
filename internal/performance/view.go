package performance

// ViewState is display state owned by a single viewer, such as one websocket
// connection or one HTTP request.
type ViewState struct {
	Filter Filter `json:"filter"`
}

// View is what a rendering layer consumes: global stats plus the filtered groups.
type View struct {
	Filter Filter          `json:"filter"`
	Stats  Stats           `json:"stats"`
	Groups []FilteredGroup `json:"groups"`
}

// Project applies a viewer's state to a summary. Stats always cover every attempt.
func Project(summary Summary, state ViewState) View {
	filter := ParseFilter(string(state.Filter))
	return View{
		Filter: filter,
		Stats:  summary.Stats,
		Groups: FilterAttempts(summary.Groups, filter),
	}
}
