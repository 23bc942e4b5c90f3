package ai

import (
	"fmt"
	"strings"
)

// The prompt templates below encode the Wymorian Systems Engineering (WySE)
// formalisms the application generates artifacts in: requirements as problem
// spaces of functions, designs as system models, verification as morphic
// conditions over those models.

const wyseSystemPrompt = `You are a world-class expert in Wymorian Systems Engineering (WySE), acting as a systems engineering professor. Explain concepts clearly, formally and thoroughly, in markdown.`

const artifactInstructions = `**CRITICAL INSTRUCTIONS:**
1. Identify the single WySE artifact to create (SR, SD, VR, or VM) from the user's prompt.
2. Produce a detailed, narrative, markdown-formatted response that explains every component in the context of the system.
3. Begin the artifact with a header of the form "### XX-NNN: Title" (e.g. "### SR-001: Mission Performance").
4. System Requirements (SR) are formalized as a Problem Space of Functions: SR = (X, Y, XY, P, F) with items of exchange, transformation functions and interfaces.
5. System Designs (SD) are formalized as a System Model: Z = (S, X, Y, N, R, P, F) with states, inputs, outputs, next-state and readout functions.
6. Verification Requirements (VR) combine a Verification Requirement Problem Space with Verification Model Morphic Conditions; Verification Models (VM) are system models proven to adhere to them.
7. List design elements as "- **Name:** description" bullets so they can be traced.`

const morphismInstructions = `**CRITICAL INSTRUCTIONS:**
1. Define both systems as 5-tuples Z = (S, X, Y, N, R) with states, inputs and outputs relevant to their descriptions.
2. Define the three mapping functions h_S (state map), h_X (input map) and h_Y (output map).
3. Rigorously verify transition preservation h_S(N_A(s,x)) = N_B(h_S(s), h_X(x)) and output preservation h_Y(R_A(s,x)) = R_B(h_S(s), h_X(x)) for at least two state-input pairs.
4. Title the document "### Homomorphism Proof: [System A] to [System B]" and close with a conclusion stating whether the homomorphism is valid and which assumptions were made.`

const graphInstructions = `**Your Instructions:**
1. Create a node for each artifact (SR, SD, VR, VM) with "id", "label", "group" and "title" fields.
2. Create edges following the strict hierarchy: SD→SR labeled "implements", VR→SD labeled "verifies", VM→VR labeled "validates".
3. Return a single valid JSON object of the form {"nodes": [...], "edges": [...]} and nothing else.`

// ArtifactPrompt assembles the generation prompt for a single WySE artifact,
// weaving in the conversation so far and any facts retrieved from the
// knowledge graph.
func ArtifactPrompt(userPrompt, contextText string, facts []string) (system, prompt string) {
	var b strings.Builder
	fmt.Fprintf(&b, "**User's Prompt:** %q\n\n", userPrompt)
	fmt.Fprintf(&b, "**Conversation Context:**\n%s\n\n", contextText)

	if len(facts) > 0 {
		b.WriteString("**Known facts from the engineering knowledge graph (use them where relevant):**\n")
		for _, fact := range facts {
			fmt.Fprintf(&b, "- %s\n", fact)
		}
		b.WriteString("\n")
	}

	b.WriteString(artifactInstructions)
	return wyseSystemPrompt, b.String()
}

// MorphismProofPrompt assembles the prompt for a formal homomorphism proof
// between a source system Z_A and a target system Z_B.
func MorphismProofPrompt(systemA, systemB string) (system, prompt string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate a formal mathematical proof of the existence of a homomorphism between a source system model Z_A (%s) and a target system model Z_B (%s).\n\n", systemA, systemB)
	b.WriteString(morphismInstructions)
	return wyseSystemPrompt, b.String()
}

// GraphPrompt assembles the prompt that turns conversation text into a
// nodes/edges visualization document.
func GraphPrompt(topic, fullText string) (system, prompt string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a network graph from the provided text for a %q.\n\n", topic)
	fmt.Fprintf(&b, "**Full Conversation Text:**\n```\n%s\n```\n\n", fullText)
	b.WriteString(graphInstructions)
	return "You are a systems engineering data visualization expert.", b.String()
}
