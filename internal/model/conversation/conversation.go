package conversation

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Artifact types produced during a systems engineering conversation.
const (
	TypeSystemRequirements      = "SR"
	TypeSystemDesign            = "SD"
	TypeVerificationRequirement = "VR"
	TypeVerificationModel       = "VM"
	TypeMorphismProof           = "MP"
	TypeUnknown                 = "Unknown"
)

// Component is a named design element parsed out of artifact text.
type Component struct {
	Name    string   `json:"name"`
	Details []string `json:"details"`
}

// Artifact is a single generated engineering artifact (SR, SD, VR or VM).
type Artifact struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	Text       string      `json:"text"`
	Components []Component `json:"components"`
}

// Trace records a directed traceability link between two artifacts,
// e.g. ("SR-001", "SD-001") meaning the design realizes the requirement.
type Trace struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Conversation holds the working state of one design dialogue: the system
// under discussion, every artifact generated for it and the traceability
// links between them.
type Conversation struct {
	SystemTopic string              `json:"systemTopic"`
	Artifacts   map[string]Artifact `json:"artifacts"`
	Traces      []Trace             `json:"traces"`

	counter int
}

var (
	headerIDPattern = regexp.MustCompile(`###\s*([A-Z]{2}-\d+)`)
	traceIDPattern  = regexp.MustCompile(`\b([A-Z]{2}-\d+)\b`)
	topicPattern    = regexp.MustCompile(`(?i)for\s+(.*?)(?:\.|$)`)
	systemsPattern  = regexp.MustCompile(`(?i)for\s+(.*?)\s+(?:and|to)\s+(?:a\s+)?(.*?)(?:\.|$)`)
)

// New creates a conversation bound to a system topic.
func New(topic string) (*Conversation, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("system topic must be a non-empty string")
	}
	return &Conversation{
		SystemTopic: topic,
		Artifacts:   make(map[string]Artifact),
	}, nil
}

// ExtractTopic pulls the system topic out of a defining prompt such as
// "Create system requirements for a GPS satellite." The empty string means
// no topic could be identified.
func ExtractTopic(prompt string) string {
	m := topicPattern.FindStringSubmatch(prompt)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// ExtractSystemPair identifies the two systems named in a morphism prompt,
// accepting "for A and B" or "for A to B" phrasing.
func ExtractSystemPair(prompt string) (string, string, bool) {
	m := systemsPattern.FindStringSubmatch(prompt)
	if m == nil {
		return "", "", false
	}
	return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
}

// AddArtifact stores a generated artifact under an ID extracted from its
// text header, falling back to a sequential one. Empty inputs are ignored.
func (c *Conversation) AddArtifact(artifactType, text string) string {
	if artifactType == "" || text == "" {
		return ""
	}

	id := c.extractOrGenerateID(artifactType, text)
	c.Artifacts[id] = Artifact{
		ID:         id,
		Type:       artifactType,
		Text:       cleanArtifactText(id, text),
		Components: parseComponents(text),
	}
	return id
}

// BuildTraces rebuilds every traceability link from artifact cross
// references. Links always point requirement→design, requirement→verification
// and design→verification regardless of which artifact mentions which.
func (c *Conversation) BuildTraces() {
	c.Traces = c.Traces[:0]

	ids := make([]string, 0, len(c.Artifacts))
	for id := range c.Artifacts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	seen := make(map[Trace]bool)
	for _, sourceID := range ids {
		artifact := c.Artifacts[sourceID]
		for _, targetID := range traceIDPattern.FindAllString(artifact.Text, -1) {
			target, ok := c.Artifacts[targetID]
			if !ok || targetID == sourceID {
				continue
			}

			trace, ok := orientTrace(sourceID, artifact.Type, targetID, target.Type)
			if !ok || seen[trace] {
				continue
			}
			seen[trace] = true
			c.Traces = append(c.Traces, trace)
		}
	}
}

// orientTrace decides the canonical direction of a link between two artifact
// types following the Wymorian hierarchy: SR feeds SD, SR and SD are covered
// by VR/VM.
func orientTrace(sourceID, sourceType, targetID, targetType string) (Trace, bool) {
	isVerification := func(t string) bool {
		return t == TypeVerificationRequirement || t == TypeVerificationModel
	}

	switch {
	case sourceType == TypeSystemDesign && targetType == TypeSystemRequirements:
		return Trace{From: targetID, To: sourceID}, true
	case sourceType == TypeSystemRequirements && targetType == TypeSystemDesign:
		return Trace{From: sourceID, To: targetID}, true
	case isVerification(sourceType) && targetType == TypeSystemRequirements:
		return Trace{From: targetID, To: sourceID}, true
	case sourceType == TypeSystemRequirements && isVerification(targetType):
		return Trace{From: sourceID, To: targetID}, true
	case isVerification(sourceType) && targetType == TypeSystemDesign:
		return Trace{From: targetID, To: sourceID}, true
	case sourceType == TypeSystemDesign && isVerification(targetType):
		return Trace{From: sourceID, To: targetID}, true
	}
	return Trace{}, false
}

// ContextText flattens the conversation into a prompt fragment: the topic
// followed by every stored artifact in ID order.
func (c *Conversation) ContextText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "System Topic: %s\n", c.SystemTopic)

	ids := make([]string, 0, len(c.Artifacts))
	for id := range c.Artifacts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		artifact := c.Artifacts[id]
		fmt.Fprintf(&b, "\n%s (%s):\n%s\n", artifact.ID, artifact.Type, artifact.Text)
	}
	return b.String()
}

func (c *Conversation) extractOrGenerateID(artifactType, text string) string {
	if m := headerIDPattern.FindStringSubmatch(text); m != nil {
		c.bumpCounter(m[1])
		return m[1]
	}
	c.counter++
	return fmt.Sprintf("%s-%03d", strings.ToUpper(artifactType), c.counter)
}

// bumpCounter keeps the sequential counter ahead of any extracted ID so
// generated IDs never collide with model-authored ones.
func (c *Conversation) bumpCounter(id string) {
	idx := strings.LastIndex(id, "-")
	if idx < 0 {
		return
	}
	if n, err := strconv.Atoi(id[idx+1:]); err == nil && n > c.counter {
		c.counter = n
	}
}

// cleanArtifactText strips a redundant "ID: ### ID:" prefix the model
// sometimes emits before the artifact body.
func cleanArtifactText(id, text string) string {
	pattern := regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(id) + `:\s*###\s*` + regexp.QuoteMeta(id) + `:\s*`)
	return strings.TrimSpace(pattern.ReplaceAllString(text, ""))
}

// parseComponents walks the artifact line by line: a "- **Name:**" bullet
// opens a component, and every following indented or plain bullet line is a
// detail of it until the next component bullet.
func parseComponents(text string) []Component {
	var (
		components []Component
		current    *Component
	)

	flush := func() {
		if current != nil {
			components = append(components, *current)
			current = nil
		}
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case strings.HasPrefix(line, "- **"):
			flush()
			parts := strings.SplitN(strings.TrimPrefix(line, "- **"), "**", 2)
			name := strings.TrimSpace(strings.TrimSuffix(parts[0], ":"))
			if name == "" {
				continue
			}
			current = &Component{Name: name}
			// Text after the closing ** on the same line is the first detail.
			if len(parts) == 2 {
				if rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(parts[1]), ":")); rest != "" {
					current.Details = append(current.Details, rest)
				}
			}
		case current != nil && strings.HasPrefix(line, "-"):
			current.Details = append(current.Details, strings.TrimSpace(strings.TrimPrefix(line, "-")))
		case current != nil && line != "":
			current.Details = append(current.Details, line)
		}
	}
	flush()
	return components
}
