package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestParseLocatorType(t *testing.T) {
	tests := []struct {
		in      string
		want    LocatorType
		wantErr bool
	}{
		{"xpath", LocatorXPath, false},
		{"partialLinkText", LocatorPartialLinkText, false},
		{"", LocatorNA, false},
		{"XPATH", LocatorNA, true},
		{"css", LocatorNA, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLocatorType(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidValue)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseExecutionStatus_DefaultsToNotRun(t *testing.T) {
	got, err := ParseExecutionStatus("")
	require.NoError(t, err)
	assert.Equal(t, StatusNotRun, got)

	_, err = ParseExecutionStatus("Pending")
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestTestStep_UnmarshalRejectsUnknownAction(t *testing.T) {
	var step TestStep
	err := json.Unmarshal([]byte(`{"testSteps":"Click login","browserActions":"TELEPORT"}`), &step)
	assert.ErrorIs(t, err, ErrInvalidValue)

	err = json.Unmarshal([]byte(`{"testSteps":"Click login","browserActions":"CLICK","executionStatus":"NOT RUN"}`), &step)
	require.NoError(t, err)
	assert.Equal(t, ActionClick, step.BrowserActions)
	assert.Equal(t, StatusNotRun, step.ExecutionStatus)
}

func TestVocabulary_ScanRejectsCorruptColumn(t *testing.T) {
	var lt LocatorType
	assert.Error(t, lt.Scan("shadowRoot"))
	require.NoError(t, lt.Scan([]byte("name")))
	assert.Equal(t, LocatorName, lt)

	var st ExecutionStatus
	require.NoError(t, st.Scan(nil))
	assert.Equal(t, StatusNotRun, st)
}

func TestVocabulary_ValueRejectsInvalid(t *testing.T) {
	_, err := BrowserAction("JUMP").Value()
	assert.ErrorIs(t, err, ErrInvalidValue)

	v, err := BrowserAction("").Value()
	require.NoError(t, err)
	assert.Equal(t, "NA", v)
}

// Whatever string arrives, parsing either yields a vocabulary member or fails.
func TestVocabulary_ParseIsClosed(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.OneOf(
			rapid.String(),
			rapid.SampledFrom([]string{"id", "CLICK", "PASS", "NOT RUN", "NA", ""}),
		).Draw(t, "input")

		if lt, err := ParseLocatorType(s); err == nil && !lt.IsValid() {
			t.Fatalf("locatorType %q parsed to invalid %q", s, lt)
		}
		if ba, err := ParseBrowserAction(s); err == nil && !ba.IsValid() {
			t.Fatalf("browserActions %q parsed to invalid %q", s, ba)
		}
		if es, err := ParseExecutionStatus(s); err == nil && !es.IsValid() {
			t.Fatalf("executionStatus %q parsed to invalid %q", s, es)
		}
	})
}

func TestTestStep_HasContent(t *testing.T) {
	assert.False(t, (&TestStep{TestSteps: "   ", LocatorType: LocatorXPath}).HasContent())
	assert.True(t, (&TestStep{ExpectedResult: "Dashboard shown"}).HasContent())
}
