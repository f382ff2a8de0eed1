// Package editor is the in-memory step table of the selected test case.
// Edits are buffered locally and persisted by one bulk save.
package editor

import (
	"context"
	"errors"
	"fmt"

	"github.com/Pradeepvanguru/Testing-Tool/internal/apiclient"
	"github.com/Pradeepvanguru/Testing-Tool/internal/explorer"
	"github.com/Pradeepvanguru/Testing-Tool/internal/models"
)

// DefaultRows is the number of blank placeholder rows shown for a test case
// without steps.
const DefaultRows = 5

var (
	ErrNotEditing = errors.New("no cell is being edited")
	ErrUnknownRow = errors.New("unknown row")
	ErrNoTestCase = errors.New("no test case loaded")
)

// Saver persists the full step list of a test case.
type Saver interface {
	SaveSteps(ctx context.Context, payload apiclient.StepsPayload) ([]models.TestStep, error)
}

// Row is one line of the table. Persisted rows came from the server;
// placeholders exist only locally until saved.
type Row struct {
	ID        string
	Step      models.TestStep
	Persisted bool
}

// Valid reports whether the row would be saved.
func (r Row) Valid() bool { return r.Step.HasContent() }

// EditState is the cell in edit mode and its uncommitted buffer.
type EditState struct {
	RowID  string
	Field  Field
	Buffer string
}

// Editor holds the rows of one test case.
type Editor struct {
	key     explorer.Key
	rows    []Row
	editing *EditState
	dirty   bool
	next    int

	// rev counts row changes; a save only replaces rows it has seen.
	rev uint64
}

// New returns an editor with no test case loaded.
func New() *Editor {
	return &Editor{}
}

// Load replaces the table with steps of the test case identified by key. An
// empty list yields DefaultRows placeholders.
func (e *Editor) Load(key explorer.Key, steps []models.TestStep) {
	e.key = key
	e.rows = make([]Row, 0, max(len(steps), DefaultRows))
	e.editing = nil
	e.dirty = false
	e.rev++

	for _, s := range steps {
		s.Normalize()
		e.rows = append(e.rows, Row{ID: e.rowID(s.StepID), Step: s, Persisted: true})
	}
	if len(steps) == 0 {
		for i := 0; i < DefaultRows; i++ {
			e.rows = append(e.rows, e.placeholder())
		}
	}
}

// Reset unloads the table.
func (e *Editor) Reset() {
	e.key = explorer.Key{}
	e.rows = nil
	e.editing = nil
	e.dirty = false
	e.rev++
}

// Key returns the identifiers of the loaded test case.
func (e *Editor) Key() explorer.Key { return e.key }

// Loaded reports whether a test case is loaded.
func (e *Editor) Loaded() bool { return e.key.TestCaseID != "" }

// AddRow appends a placeholder row and returns its ID.
func (e *Editor) AddRow() string {
	row := e.placeholder()
	e.rows = append(e.rows, row)
	e.touch()
	return row.ID
}

// DeleteRow removes a row locally. A persisted row is dropped from the
// server on the next save.
func (e *Editor) DeleteRow(rowID string) error {
	idx := e.index(rowID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownRow, rowID)
	}
	if e.editing != nil && e.editing.RowID == rowID {
		e.editing = nil
	}
	e.rows = append(e.rows[:idx], e.rows[idx+1:]...)
	e.touch()
	return nil
}

// ===== Edit protocol =====

// StartEdit puts a cell into edit mode with its current value in the
// buffer. An edit already in progress is discarded.
func (e *Editor) StartEdit(rowID string, field Field) error {
	idx := e.index(rowID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownRow, rowID)
	}
	e.editing = &EditState{RowID: rowID, Field: field, Buffer: field.Value(e.rows[idx].Step)}
	return nil
}

// Input replaces the edit buffer. The row is not touched.
func (e *Editor) Input(value string) error {
	if e.editing == nil {
		return ErrNotEditing
	}
	e.editing.Buffer = value
	return nil
}

// Commit writes the buffer into the row and leaves edit mode. An invalid
// enumerated value is rejected; the row is untouched and edit mode stays on.
func (e *Editor) Commit() error {
	if e.editing == nil {
		return ErrNotEditing
	}
	rowID := e.editing.RowID
	idx := e.index(rowID)
	if idx < 0 {
		e.editing = nil
		return fmt.Errorf("%w: %s", ErrUnknownRow, rowID)
	}
	if err := e.write(idx, e.editing.Field, e.editing.Buffer); err != nil {
		return err
	}
	e.editing = nil
	return nil
}

// Cancel leaves edit mode and discards the buffer.
func (e *Editor) Cancel() error {
	if e.editing == nil {
		return ErrNotEditing
	}
	e.editing = nil
	return nil
}

// Choose sets a cell in one step, as a dropdown selection does.
func (e *Editor) Choose(rowID string, field Field, value string) error {
	idx := e.index(rowID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownRow, rowID)
	}
	if e.editing != nil && e.editing.RowID == rowID && e.editing.Field == field {
		e.editing = nil
	}
	return e.write(idx, field, value)
}

func (e *Editor) write(idx int, field Field, value string) error {
	step := e.rows[idx].Step
	if err := field.set(&step, value); err != nil {
		return err
	}
	if step != e.rows[idx].Step {
		e.rows[idx].Step = step
		e.touch()
	}
	return nil
}

func (e *Editor) touch() {
	e.dirty = true
	e.rev++
}

// ===== Save =====

// Pending is a save in flight: the request and the table revision it was
// built from.
type Pending struct {
	Key     explorer.Key
	Payload apiclient.StepsPayload

	rev    uint64
	rowIDs []string
}

// BeginSave captures the payload of the current rows for a save that runs
// outside the caller's lock. Hand the response to ApplySaved.
func (e *Editor) BeginSave() Pending {
	p := Pending{Key: e.key, Payload: e.Payload(), rev: e.rev}
	for _, row := range e.rows {
		if row.Valid() {
			p.rowIDs = append(p.rowIDs, row.ID)
		}
	}
	return p
}

// Payload builds the bulk save request: valid rows only, in table order,
// numbered from 1. Placeholders carry no StepID.
func (e *Editor) Payload() apiclient.StepsPayload {
	steps := make([]models.TestStep, 0, len(e.rows))
	for _, row := range e.rows {
		if !row.Valid() {
			continue
		}
		s := row.Step
		s.Normalize()
		s.StepNumber = len(steps) + 1
		s.TestCaseID = e.key.TestCaseID
		if !row.Persisted {
			s.StepID = ""
		}
		steps = append(steps, s)
	}
	return apiclient.StepsPayload{
		ProjectID:  e.key.ProjectID,
		ReleaseID:  e.key.ReleaseID,
		RunID:      e.key.RunID,
		TestCaseID: e.key.TestCaseID,
		Steps:      steps,
	}
}

// Save sends Payload in one call and applies the response.
func (e *Editor) Save(ctx context.Context, saver Saver) error {
	if !e.Loaded() {
		return ErrNoTestCase
	}
	p := e.BeginSave()
	saved, err := saver.SaveSteps(ctx, p.Payload)
	if err != nil {
		return err
	}
	return e.ApplySaved(p, saved)
}

// ApplySaved applies the server's copy after the save p. When no row changed
// since BeginSave the table is replaced by the saved steps. Otherwise the
// local rows are kept: rows that were part of the save take their server
// StepID and become persisted, and the table stays dirty. A response for a
// test case that is no longer loaded is dropped.
func (e *Editor) ApplySaved(p Pending, steps []models.TestStep) error {
	if p.Key != e.key {
		return explorer.ErrStale
	}
	if p.rev == e.rev {
		e.Load(p.Key, steps)
		return nil
	}
	for i, id := range p.rowIDs {
		if i >= len(steps) {
			break
		}
		idx := e.index(id)
		if idx < 0 || steps[i].StepID == "" {
			continue
		}
		e.rows[idx].Step.StepID = steps[i].StepID
		e.rows[idx].Persisted = true
	}
	return nil
}

// ===== Accessors =====

// Rows returns a copy of the table.
func (e *Editor) Rows() []Row { return append([]Row(nil), e.rows...) }

// Row returns one row by ID.
func (e *Editor) Row(rowID string) (Row, bool) {
	if idx := e.index(rowID); idx >= 0 {
		return e.rows[idx], true
	}
	return Row{}, false
}

// Editing returns the cell in edit mode, if any.
func (e *Editor) Editing() (EditState, bool) {
	if e.editing == nil {
		return EditState{}, false
	}
	return *e.editing, true
}

// Dirty reports whether rows changed since the last load or save.
func (e *Editor) Dirty() bool { return e.dirty }

func (e *Editor) index(rowID string) int {
	for i, r := range e.rows {
		if r.ID == rowID {
			return i
		}
	}
	return -1
}

func (e *Editor) placeholder() Row {
	step := models.TestStep{TestCaseID: e.key.TestCaseID}
	step.Normalize()
	return Row{ID: e.rowID(""), Step: step}
}

func (e *Editor) rowID(stepID string) string {
	if stepID != "" && e.index(stepID) < 0 {
		return stepID
	}
	e.next++
	return fmt.Sprintf("new-%d", e.next)
}
