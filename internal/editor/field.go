package editor

import (
	"fmt"

	"github.com/Pradeepvanguru/Testing-Tool/internal/models"
)

// Field is an editable column of the step table.
type Field int

const (
	FieldTestSteps Field = iota
	FieldDescription
	FieldExpectedResult
	FieldActualResult
	FieldLocatorType
	FieldLocatorValue
	FieldBrowserActions
	FieldTestdata
	FieldExecutionStatus
)

var fields = []Field{
	FieldTestSteps, FieldDescription, FieldExpectedResult, FieldActualResult,
	FieldLocatorType, FieldLocatorValue, FieldBrowserActions, FieldTestdata,
	FieldExecutionStatus,
}

// Fields returns the columns in display order.
func Fields() []Field { return append([]Field(nil), fields...) }

// String returns the wire name of the field.
func (f Field) String() string {
	switch f {
	case FieldTestSteps:
		return "testSteps"
	case FieldDescription:
		return "description"
	case FieldExpectedResult:
		return "expectedResult"
	case FieldActualResult:
		return "actualResult"
	case FieldLocatorType:
		return "locatorType"
	case FieldLocatorValue:
		return "locatorValue"
	case FieldBrowserActions:
		return "browserActions"
	case FieldTestdata:
		return "testdata"
	case FieldExecutionStatus:
		return "executionStatus"
	default:
		return fmt.Sprintf("field(%d)", int(f))
	}
}

// ParseField looks a field up by wire name.
func ParseField(name string) (Field, error) {
	for _, f := range fields {
		if f.String() == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown field %q", name)
}

// Enumerated reports whether the field takes a value from a closed
// vocabulary.
func (f Field) Enumerated() bool {
	switch f {
	case FieldLocatorType, FieldBrowserActions, FieldExecutionStatus:
		return true
	}
	return false
}

// Options returns the vocabulary of an enumerated field, nil otherwise.
func (f Field) Options() []string {
	switch f {
	case FieldLocatorType:
		return toStrings(models.LocatorTypes())
	case FieldBrowserActions:
		return toStrings(models.BrowserActions())
	case FieldExecutionStatus:
		return toStrings(models.ExecutionStatuses())
	}
	return nil
}

// Value reads the field from s.
func (f Field) Value(s models.TestStep) string {
	switch f {
	case FieldTestSteps:
		return s.TestSteps
	case FieldDescription:
		return s.Description
	case FieldExpectedResult:
		return s.ExpectedResult
	case FieldActualResult:
		return s.ActualResult
	case FieldLocatorType:
		return string(s.LocatorType)
	case FieldLocatorValue:
		return s.LocatorValue
	case FieldBrowserActions:
		return string(s.BrowserActions)
	case FieldTestdata:
		return s.Testdata
	case FieldExecutionStatus:
		return string(s.ExecutionStatus)
	}
	return ""
}

// set writes v into s. Enumerated values are validated first; on error s is
// not modified.
func (f Field) set(s *models.TestStep, v string) error {
	switch f {
	case FieldTestSteps:
		s.TestSteps = v
	case FieldDescription:
		s.Description = v
	case FieldExpectedResult:
		s.ExpectedResult = v
	case FieldActualResult:
		s.ActualResult = v
	case FieldLocatorType:
		t, err := models.ParseLocatorType(v)
		if err != nil {
			return err
		}
		s.LocatorType = t
	case FieldLocatorValue:
		s.LocatorValue = v
	case FieldBrowserActions:
		a, err := models.ParseBrowserAction(v)
		if err != nil {
			return err
		}
		s.BrowserActions = a
	case FieldTestdata:
		s.Testdata = v
	case FieldExecutionStatus:
		st, err := models.ParseExecutionStatus(v)
		if err != nil {
			return err
		}
		s.ExecutionStatus = st
	default:
		return fmt.Errorf("unknown field %d", int(f))
	}
	return nil
}

func toStrings[T ~string](vs []T) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = string(v)
	}
	return out
}
