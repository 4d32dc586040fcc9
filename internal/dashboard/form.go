package dashboard

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"eventscheduler/internal/domain"
)

// FormMode is the state of the event form.
type FormMode string

const (
	FormClosed FormMode = "closed"
	FormCreate FormMode = "create"
	FormEdit   FormMode = "edit"
)

// DefaultEventTime is the time preset on a new event.
const DefaultEventTime = "09:00"

var (
	ErrFormClosed       = errors.New("event form is closed")
	ErrSubmitInProgress = errors.New("event form submit already in progress")
)

// EventWriter persists form submissions. domain.EventService satisfies it.
type EventWriter interface {
	CreateEvent(ctx context.Context, event *domain.Event) error
	UpdateEvent(ctx context.Context, id, ownerID string, patch domain.EventPatch) (*domain.Event, error)
}

// FormValues are the editable fields of the event form.
type FormValues struct {
	Title       string             `json:"title"`
	Date        string             `json:"date"`
	Time        string             `json:"time"`
	Location    string             `json:"location"`
	Description string             `json:"description"`
	Status      domain.EventStatus `json:"status"`
}

// FormValuesFrom copies the editable fields of e.
func FormValuesFrom(e *domain.Event) FormValues {
	return FormValues{
		Title:       e.Title,
		Date:        e.Date,
		Time:        e.Time,
		Location:    e.Location,
		Description: e.Description,
		Status:      e.Status,
	}
}

// Patch returns a patch that overwrites every editable field.
func (v FormValues) Patch() domain.EventPatch {
	return domain.EventPatch{
		Title:       &v.Title,
		Date:        &v.Date,
		Time:        &v.Time,
		Location:    &v.Location,
		Description: &v.Description,
		Status:      &v.Status,
	}
}

// EventForm is the create/edit modal: closed -> create|edit -> closed on a
// successful submit or cancel. Failed submits keep the form open.
type EventForm struct {
	now func() time.Time

	mu         sync.Mutex
	mode       FormMode
	editingID  string
	createdAt  time.Time
	values     FormValues
	errs       *domain.ValidationError
	submitting bool
}

func NewEventForm(now func() time.Time) *EventForm {
	if now == nil {
		now = time.Now
	}
	return &EventForm{now: now, mode: FormClosed}
}

// OpenCreate opens an empty form dated today at 09:00 with status upcoming.
func (f *EventForm) OpenCreate() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mode = FormCreate
	f.editingID = ""
	f.createdAt = time.Time{}
	f.errs = nil
	f.values = FormValues{
		Date:   f.now().Format(domain.DateLayout),
		Time:   DefaultEventTime,
		Status: domain.EventStatusUpcoming,
	}
}

// OpenEdit opens the form prefilled with e. Its creation timestamp is kept as is.
func (f *EventForm) OpenEdit(e *domain.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mode = FormEdit
	f.editingID = e.ID
	f.createdAt = e.CreatedAt
	f.errs = nil
	f.values = FormValuesFrom(e)
}

func (f *EventForm) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeLocked()
}

func (f *EventForm) closeLocked() {
	f.mode = FormClosed
	f.editingID = ""
	f.createdAt = time.Time{}
	f.values = FormValues{}
	f.errs = nil
}

// Set replaces the form values. It is ignored while the form is closed.
func (f *EventForm) Set(v FormValues) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mode == FormClosed {
		return
	}
	f.values = v
}

func (f *EventForm) Mode() FormMode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode
}

func (f *EventForm) Values() FormValues {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values
}

// Errors returns the field errors of the last failed validation, or nil.
func (f *EventForm) Errors() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errs == nil {
		return nil
	}
	return f.errs.Fields
}

// Submit validates the values and creates or updates the event for ownerID.
// It returns the saved event and closes the form on success.
func (f *EventForm) Submit(ctx context.Context, writer EventWriter, ownerID string) (*domain.Event, error) {
	f.mu.Lock()
	if f.mode == FormClosed {
		f.mu.Unlock()
		return nil, ErrFormClosed
	}
	if f.submitting {
		f.mu.Unlock()
		return nil, ErrSubmitInProgress
	}
	values := f.values
	values.Title = strings.TrimSpace(values.Title)
	values.Location = strings.TrimSpace(values.Location)
	if err := ValidateValues(values); err != nil {
		f.errs = err.(*domain.ValidationError)
		f.mu.Unlock()
		return nil, err
	}
	f.errs = nil
	f.submitting = true
	mode, id, createdAt := f.mode, f.editingID, f.createdAt
	f.mu.Unlock()

	var (
		saved *domain.Event
		err   error
	)
	if mode == FormCreate {
		saved = domain.NewEvent(ownerID, values.Title, values.Date, values.Time, values.Location, values.Description, values.Status, f.now().UTC())
		err = writer.CreateEvent(ctx, saved)
	} else {
		saved, err = writer.UpdateEvent(ctx, id, ownerID, values.Patch())
		if err == nil && !createdAt.IsZero() {
			saved.CreatedAt = createdAt
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitting = false
	if err != nil {
		return nil, err
	}
	f.closeLocked()
	return saved, nil
}

// ValidateValues checks that title, date, time and location are present and well formed.
// It returns a *domain.ValidationError keyed by JSON field name.
func ValidateValues(v FormValues) error {
	verr := &domain.ValidationError{}
	requireText(verr, "title", "Title", v.Title)
	requireDate(verr, v.Date)
	requireTime(verr, v.Time)
	requireText(verr, "location", "Location", v.Location)
	checkStatus(verr, v.Status)
	return verr.OrNil()
}

// ValidatePatch applies the same rules to the fields present in p.
func ValidatePatch(p domain.EventPatch) error {
	verr := &domain.ValidationError{}
	if p.Title != nil {
		requireText(verr, "title", "Title", *p.Title)
	}
	if p.Date != nil {
		requireDate(verr, *p.Date)
	}
	if p.Time != nil {
		requireTime(verr, *p.Time)
	}
	if p.Location != nil {
		requireText(verr, "location", "Location", *p.Location)
	}
	if p.Status != nil {
		checkStatus(verr, *p.Status)
	}
	return verr.OrNil()
}

func requireText(verr *domain.ValidationError, field, label, value string) {
	if strings.TrimSpace(value) == "" {
		verr.Add(field, label+" is required")
	}
}

func requireDate(verr *domain.ValidationError, value string) {
	if value == "" {
		verr.Add("date", "Date is required")
		return
	}
	if _, err := time.Parse(domain.DateLayout, value); err != nil {
		verr.Add("date", "Date must be YYYY-MM-DD")
	}
}

func requireTime(verr *domain.ValidationError, value string) {
	if value == "" {
		verr.Add("time", "Time is required")
		return
	}
	if _, err := time.Parse(domain.TimeLayout, value); err != nil || len(value) != len(domain.TimeLayout) {
		verr.Add("time", "Time must be HH:MM")
	}
}

// checkStatus accepts an empty status, which the event service defaults to upcoming.
func checkStatus(verr *domain.ValidationError, s domain.EventStatus) {
	if s != "" && !s.Valid() {
		verr.Add("status", "Status must be one of upcoming, attending, maybe, declined")
	}
}
