package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidValue is returned when an enumerated step field is given a value
// outside its closed vocabulary.
var ErrInvalidValue = errors.New("value outside vocabulary")

// LocatorType identifies how a UI-automation step locates its element.
type LocatorType string

const (
	LocatorID              LocatorType = "id"
	LocatorClassName       LocatorType = "className"
	LocatorCSSSelector     LocatorType = "cssSelector"
	LocatorXPath           LocatorType = "xpath"
	LocatorLinkText        LocatorType = "linkText"
	LocatorName            LocatorType = "name"
	LocatorPartialLinkText LocatorType = "partialLinkText"
	LocatorTagName         LocatorType = "tagName"
	LocatorNA              LocatorType = "NA"
)

var locatorTypes = []LocatorType{
	LocatorID, LocatorClassName, LocatorCSSSelector, LocatorXPath, LocatorLinkText,
	LocatorName, LocatorPartialLinkText, LocatorTagName, LocatorNA,
}

// BrowserAction is the automation action a step performs.
type BrowserAction string

const (
	ActionNavigationTo BrowserAction = "NAVIGATION_TO"
	ActionClick        BrowserAction = "CLICK"
	ActionDoubleClick  BrowserAction = "DOUBLE_CLICK"
	ActionRightClick   BrowserAction = "RIGHT_CLICK"
	ActionEnter        BrowserAction = "ENTER"
	ActionClear        BrowserAction = "CLEAR"
	ActionSelect       BrowserAction = "SELECT"
	ActionHover        BrowserAction = "HOVER"
	ActionScroll       BrowserAction = "SCROLL"
	ActionWait         BrowserAction = "WAIT"
	ActionSwitchFrame  BrowserAction = "SWITCH_FRAME"
	ActionAcceptAlert  BrowserAction = "ACCEPT_ALERT"
	ActionDismissAlert BrowserAction = "DISMISS_ALERT"
	ActionVerifyText   BrowserAction = "VERIFY_TEXT"
	ActionVerifyTitle  BrowserAction = "VERIFY_TITLE"
	ActionScreenshot   BrowserAction = "SCREENSHOT"
	ActionClose        BrowserAction = "CLOSE"
	ActionNA           BrowserAction = "NA"
)

var browserActions = []BrowserAction{
	ActionNavigationTo, ActionClick, ActionDoubleClick, ActionRightClick, ActionEnter,
	ActionClear, ActionSelect, ActionHover, ActionScroll, ActionWait, ActionSwitchFrame,
	ActionAcceptAlert, ActionDismissAlert, ActionVerifyText, ActionVerifyTitle,
	ActionScreenshot, ActionClose, ActionNA,
}

// ExecutionStatus is the recorded outcome of a step.
type ExecutionStatus string

const (
	StatusPass    ExecutionStatus = "PASS"
	StatusFail    ExecutionStatus = "FAIL"
	StatusBlocked ExecutionStatus = "BLOCKED"
	StatusNotRun  ExecutionStatus = "NOT RUN"
)

var executionStatuses = []ExecutionStatus{StatusPass, StatusFail, StatusBlocked, StatusNotRun}

// LocatorTypes returns the locatorType vocabulary in display order.
func LocatorTypes() []LocatorType { return append([]LocatorType(nil), locatorTypes...) }

// BrowserActions returns the browserActions vocabulary in display order.
func BrowserActions() []BrowserAction { return append([]BrowserAction(nil), browserActions...) }

// ExecutionStatuses returns the executionStatus vocabulary in display order.
func ExecutionStatuses() []ExecutionStatus {
	return append([]ExecutionStatus(nil), executionStatuses...)
}

// ParseLocatorType accepts a member of the vocabulary; empty input means NA.
func ParseLocatorType(s string) (LocatorType, error) {
	return parseClosed("locatorType", s, locatorTypes, LocatorNA)
}

// ParseBrowserAction accepts a member of the vocabulary; empty input means NA.
func ParseBrowserAction(s string) (BrowserAction, error) {
	return parseClosed("browserActions", s, browserActions, ActionNA)
}

// ParseExecutionStatus accepts a member of the vocabulary; empty input means NOT RUN.
func ParseExecutionStatus(s string) (ExecutionStatus, error) {
	return parseClosed("executionStatus", s, executionStatuses, StatusNotRun)
}

func (t LocatorType) IsValid() bool     { return contains(locatorTypes, t) }
func (a BrowserAction) IsValid() bool   { return contains(browserActions, a) }
func (s ExecutionStatus) IsValid() bool { return contains(executionStatuses, s) }

func (t *LocatorType) UnmarshalJSON(b []byte) error {
	return unmarshalClosed(b, t, ParseLocatorType)
}

func (a *BrowserAction) UnmarshalJSON(b []byte) error {
	return unmarshalClosed(b, a, ParseBrowserAction)
}

func (s *ExecutionStatus) UnmarshalJSON(b []byte) error {
	return unmarshalClosed(b, s, ParseExecutionStatus)
}

func (t LocatorType) Value() (driver.Value, error) {
	v, err := ParseLocatorType(string(t))
	return string(v), err
}

func (a BrowserAction) Value() (driver.Value, error) {
	v, err := ParseBrowserAction(string(a))
	return string(v), err
}

func (s ExecutionStatus) Value() (driver.Value, error) {
	v, err := ParseExecutionStatus(string(s))
	return string(v), err
}

func (t *LocatorType) Scan(value interface{}) error {
	return scanClosed(value, t, ParseLocatorType)
}

func (a *BrowserAction) Scan(value interface{}) error {
	return scanClosed(value, a, ParseBrowserAction)
}

func (s *ExecutionStatus) Scan(value interface{}) error {
	return scanClosed(value, s, ParseExecutionStatus)
}

func parseClosed[T ~string](field, s string, vocab []T, def T) (T, error) {
	if s == "" {
		return def, nil
	}
	for _, v := range vocab {
		if string(v) == s {
			return v, nil
		}
	}
	return def, fmt.Errorf("%w: %s %q", ErrInvalidValue, field, s)
}

func contains[T ~string](vocab []T, v T) bool {
	for _, x := range vocab {
		if x == v {
			return true
		}
	}
	return false
}

func unmarshalClosed[T ~string](b []byte, dst *T, parse func(string) (T, error)) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	v, err := parse(raw)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func scanClosed[T ~string](value interface{}, dst *T, parse func(string) (T, error)) error {
	var raw string
	switch v := value.(type) {
	case nil:
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("failed to scan vocabulary value: unsupported type %T", value)
	}
	parsed, err := parse(raw)
	if err != nil {
		return err
	}
	*dst = parsed
	return nil
}
