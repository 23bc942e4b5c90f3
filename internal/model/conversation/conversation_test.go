package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresTopic(t *testing.T) {
	_, err := New("   ")
	require.Error(t, err)

	conv, err := New("a GPS satellite")
	require.NoError(t, err)
	assert.Equal(t, "a GPS satellite", conv.SystemTopic)
}

func TestExtractTopic(t *testing.T) {
	cases := []struct {
		prompt string
		want   string
	}{
		{"Create system requirements for a GPS satellite.", "a GPS satellite"},
		{"create system requirements for a drone delivery system", "a drone delivery system"},
		{"tell me more about requirements", ""},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, ExtractTopic(tc.prompt), "prompt: %s", tc.prompt)
	}
}

func TestExtractSystemPair(t *testing.T) {
	a, b, ok := ExtractSystemPair("Create a homomorphism proof for a drone and a rover.")
	require.True(t, ok)
	assert.Equal(t, "a drone", a)
	assert.Equal(t, "rover", b)

	a, b, ok = ExtractSystemPair("proof for a pump system to a turbine")
	require.True(t, ok)
	assert.Equal(t, "a pump system", a)
	assert.Equal(t, "turbine", b)

	_, _, ok = ExtractSystemPair("Create a homomorphism proof")
	assert.False(t, ok)
}

func TestAddArtifactExtractsHeaderID(t *testing.T) {
	conv, err := New("a drone")
	require.NoError(t, err)

	id := conv.AddArtifact(TypeSystemRequirements, "### SR-007: Endurance\nThe drone shall fly for 2 hours.")
	assert.Equal(t, "SR-007", id)

	// The counter must stay ahead of extracted IDs.
	next := conv.AddArtifact(TypeSystemDesign, "A design without a header.")
	assert.Equal(t, "SD-008", next)
}

func TestAddArtifactGeneratesSequentialIDs(t *testing.T) {
	conv, err := New("a drone")
	require.NoError(t, err)

	assert.Equal(t, "SR-001", conv.AddArtifact(TypeSystemRequirements, "some requirement text"))
	assert.Equal(t, "SD-002", conv.AddArtifact(TypeSystemDesign, "some design text"))
	assert.Empty(t, conv.AddArtifact(TypeSystemDesign, ""))
}

func TestAddArtifactCleansRedundantHeader(t *testing.T) {
	conv, err := New("a drone")
	require.NoError(t, err)

	conv.AddArtifact(TypeSystemRequirements, "SR-001: ### SR-001: Range\nThe drone shall fly 10 km.")
	artifact := conv.Artifacts["SR-001"]
	assert.Equal(t, "Range\nThe drone shall fly 10 km.", artifact.Text)
}

func TestParseComponents(t *testing.T) {
	text := `### SD-001: Airframe
- **Propulsion:** four brushless motors
  - redundant ESCs
- **Navigation:** GPS plus visual odometry`

	conv, err := New("a drone")
	require.NoError(t, err)
	conv.AddArtifact(TypeSystemDesign, text)

	artifact := conv.Artifacts["SD-001"]
	require.Len(t, artifact.Components, 2)
	assert.Equal(t, "Propulsion", artifact.Components[0].Name)
	assert.Contains(t, artifact.Components[0].Details, "redundant ESCs")
	assert.Equal(t, "Navigation", artifact.Components[1].Name)
}

func TestBuildTracesOrientsLinks(t *testing.T) {
	conv, err := New("a drone")
	require.NoError(t, err)

	conv.AddArtifact(TypeSystemRequirements, "### SR-001: Range\nThe drone shall fly 10 km.")
	conv.AddArtifact(TypeSystemDesign, "### SD-002: Airframe\nImplements SR-001.")
	conv.AddArtifact(TypeVerificationRequirement, "### VR-003: Range Test\nVerifies SR-001 against SD-002.")

	conv.BuildTraces()

	assert.Contains(t, conv.Traces, Trace{From: "SR-001", To: "SD-002"})
	assert.Contains(t, conv.Traces, Trace{From: "SR-001", To: "VR-003"})
	assert.Contains(t, conv.Traces, Trace{From: "SD-002", To: "VR-003"})
	assert.Len(t, conv.Traces, 3)
}

func TestBuildTracesIgnoresUnknownAndSelfReferences(t *testing.T) {
	conv, err := New("a drone")
	require.NoError(t, err)

	conv.AddArtifact(TypeSystemRequirements, "### SR-001: Range\nSee SR-001 and SD-999 for details.")
	conv.BuildTraces()

	assert.Empty(t, conv.Traces)
}

func TestContextTextIncludesArtifacts(t *testing.T) {
	conv, err := New("a drone")
	require.NoError(t, err)
	conv.AddArtifact(TypeSystemRequirements, "### SR-001: Range\nThe drone shall fly 10 km.")

	text := conv.ContextText()
	assert.Contains(t, text, "System Topic: a drone")
	assert.Contains(t, text, "SR-001")
}
