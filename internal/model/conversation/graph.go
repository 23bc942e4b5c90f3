package conversation

// GraphNode is one vertex of the visualization payload sent to the page.
type GraphNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Group string `json:"group,omitempty"`
	Title string `json:"title,omitempty"`
}

// GraphEdge links two nodes in the visualization payload.
type GraphEdge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label,omitempty"`
}

// GraphData is the nodes/edges document rendered by the client-side graph
// library.
type GraphData struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}
