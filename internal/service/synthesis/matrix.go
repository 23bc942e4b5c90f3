package synthesis

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/sysengio/wysechat/internal/model/conversation"
)

// renderTraceabilityMatrix builds an HTML table with one row per
// requirement/design artifact and one column per artifact it traces to.
// Traces must have been rebuilt by the caller.
func renderTraceabilityMatrix(conv *conversation.Conversation) string {
	ids := make([]string, 0, len(conv.Artifacts))
	for id := range conv.Artifacts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if len(ids) == 0 {
		return fmt.Sprintf("<p>No artifacts recorded yet for the <strong>%s</strong>. Generate requirements, designs and verification artifacts first.</p>",
			html.EscapeString(conv.SystemTopic))
	}

	targets := make(map[string][]string)
	for _, trace := range conv.Traces {
		targets[trace.From] = append(targets[trace.From], trace.To)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<h3>Traceability Matrix: %s</h3>\n", html.EscapeString(conv.SystemTopic))
	b.WriteString("<table class=\"traceability\">\n")
	b.WriteString("<tr><th>Artifact</th><th>Type</th><th>Traces To</th></tr>\n")

	for _, id := range ids {
		artifact := conv.Artifacts[id]
		linked := targets[id]
		sort.Strings(linked)

		cell := "&mdash;"
		if len(linked) > 0 {
			cell = html.EscapeString(strings.Join(linked, ", "))
		}
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td><td>%s</td></tr>\n",
			html.EscapeString(artifact.ID), html.EscapeString(artifact.Type), cell)
	}

	b.WriteString("</table>")
	return b.String()
}
