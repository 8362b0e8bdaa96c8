// Package service coordinates the session, the API gateway, and the sort
// state behind the event views. Every user gesture maps to one flow here:
// validate, call the API, refresh, notify. No flow ever leaves the UI in an
// inconsistent state; every failure path ends in a notification.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/gestor-eventos/eventctl/internal/errmsg"
	"github.com/gestor-eventos/eventctl/internal/models"
	"github.com/gestor-eventos/eventctl/internal/sorting"
	appErrors "github.com/gestor-eventos/eventctl/pkg/errors"
)

type eventGateway interface {
	Login(ctx context.Context, email, password string) (*models.LoginResponse, error)
	Register(ctx context.Context, name, email, password string) error
	ListEvents(ctx context.Context) ([]models.Event, error)
	CreateEvent(ctx context.Context, draft models.EventDraft, date time.Time, userID int64) (*models.Event, error)
	UpdateEvent(ctx context.Context, id int64, draft models.EventDraft, date time.Time) (*models.Event, error)
	DeleteEvent(ctx context.Context, id int64) error
}

type sessionStore interface {
	Save(models.Session) error
	Current() (models.Session, bool)
	Clear() error
}

// NotifyKind distinguishes success from error notifications.
type NotifyKind string

const (
	NotifySuccess NotifyKind = "success"
	NotifyError   NotifyKind = "error"
)

// Prompter is the modal capability: a blocking dialog that collects input and
// returns it, or nil on cancellation. Re-prompting on invalid input is the
// prompter's concern; the service only ever receives a completed draft or nil.
type Prompter interface {
	EventForm(title string, initial *models.EventDraft) (*models.EventDraft, error)
	Confirm(title, text string) (bool, error)
	Notify(kind NotifyKind, title, text string)
	Details(event models.Event)
}

// State describes where the orchestrator is in its load cycle.
type State string

const (
	StateIdle      State = "idle"
	StateLoading   State = "loading"
	StateLoaded    State = "loaded"
	StateLoadError State = "load_error"
)

// Validation messages shown when a draft is rejected before submission.
const (
	MsgFieldsRequired   = "Todos los campos son obligatorios"
	MsgDateMustBeFuture = "La fecha debe ser futura"
)

// eventDateLayout is the datetime-local layout the form accepts next to RFC3339.
const eventDateLayout = "2006-01-02T15:04"

// EventService orchestrates the event list and its create/edit/delete flows.
type EventService struct {
	api      eventGateway
	store    sessionStore
	prompter Prompter
	validate *validator.Validate
	logger   *zap.Logger

	mu     sync.Mutex
	busy   bool
	state  State
	spec   models.SortSpec
	events []models.Event
}

// NewEventService constructs the orchestrator.
func NewEventService(api eventGateway, store sessionStore, prompter Prompter, validate *validator.Validate, logger *zap.Logger) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	registerFutureRule(validate)

	return &EventService{
		api:      api,
		store:    store,
		prompter: prompter,
		validate: validate,
		logger:   logger,
		state:    StateIdle,
		spec:     models.DefaultSort,
	}
}

func registerFutureRule(v *validator.Validate) {
	// Registered on the draft's date string: it must parse and lie strictly
	// after the current instant. The required rule catches the empty case.
	_ = v.RegisterValidation("future", func(fl validator.FieldLevel) bool {
		raw := fl.Field().String()
		if raw == "" {
			return true
		}
		t, err := ParseEventDate(raw)
		if err != nil {
			return false
		}
		return t.After(time.Now())
	})
}

// ParseEventDate parses a form date. RFC3339 is tried first, then the
// datetime-local layout the form fields use, interpreted as local time.
func ParseEventDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.ParseInLocation(eventDateLayout, raw, time.Local)
}

type validatedDraft struct {
	draft models.EventDraft
	date  time.Time
}

// ValidateDraft rejects a draft with any empty field or a date that is not
// strictly in the future. Nothing is ever submitted from a rejected draft.
func (s *EventService) ValidateDraft(draft models.EventDraft) error {
	type dated struct {
		Title       string `validate:"required"`
		Description string `validate:"required"`
		Location    string `validate:"required"`
		Date        string `validate:"required,future"`
	}
	err := s.validate.Struct(dated(draft))
	if err == nil {
		return nil
	}

	if errs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range errs {
			if fe.Tag() == "required" {
				return appErrors.Wrap(err, appErrors.CodeLocalValidation, 400, MsgFieldsRequired)
			}
		}
		return appErrors.Wrap(err, appErrors.CodeLocalValidation, 400, MsgDateMustBeFuture)
	}
	return appErrors.Wrap(err, appErrors.CodeLocalValidation, 400, MsgFieldsRequired)
}

func (s *EventService) validateDraft(draft models.EventDraft) (*validatedDraft, error) {
	if err := s.ValidateDraft(draft); err != nil {
		return nil, err
	}
	date, err := ParseEventDate(draft.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.CodeLocalValidation, 400, MsgDateMustBeFuture)
	}
	return &validatedDraft{draft: draft, date: date}, nil
}

// begin marks a flow as in flight. Flows are user gestures; a gesture that
// arrives while another flow is running is dropped rather than queued.
func (s *EventService) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return false
	}
	s.busy = true
	return true
}

func (s *EventService) end() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

// State returns the current load state.
func (s *EventService) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Events returns a copy of the currently held, owner-scoped, sorted list.
func (s *EventService) Events() []models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Event, len(s.events))
	copy(out, s.events)
	return out
}

// Sort returns the active sort spec.
func (s *EventService) Sort() models.SortSpec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spec
}

// Refresh reloads the event list. Safe to call from the UI at any time; it is
// dropped if a flow is already running.
func (s *EventService) Refresh(ctx context.Context) error {
	if !s.begin() {
		return nil
	}
	defer s.end()
	return s.refresh(ctx)
}

// refresh fetches, scopes, and sorts the list. On failure the previously
// loaded events are kept: a failed refresh never clears existing data.
func (s *EventService) refresh(ctx context.Context) error {
	sess, ok := s.store.Current()
	if !ok {
		return appErrors.ErrNoSession
	}

	s.setState(StateLoading)

	all, err := s.api.ListEvents(ctx)
	if err != nil {
		s.setState(StateLoadError)
		s.logger.Warn("failed to fetch events", zap.Error(err))
		s.prompter.Notify(NotifyError, "Error al obtener eventos", "No se pudieron cargar los eventos")
		return err
	}

	mine := make([]models.Event, 0, len(all))
	for _, evt := range all {
		if evt.UserID == sess.UserID {
			mine = append(mine, evt)
		}
	}

	s.mu.Lock()
	s.events = sorting.Sort(mine, s.spec)
	s.state = StateLoaded
	s.mu.Unlock()
	return nil
}

func (s *EventService) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// SetSort changes the ordering and re-sorts the held list in place. No
// refetch is needed; sorting is a pure client-side concern.
func (s *EventService) SetSort(spec models.SortSpec) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spec = spec
	s.events = sorting.Sort(s.events, spec)
}

// CreateFlow prompts for a new event and submits it.
func (s *EventService) CreateFlow(ctx context.Context) error {
	if !s.begin() {
		return nil
	}
	defer s.end()

	sess, ok := s.store.Current()
	if !ok {
		s.prompter.Notify(NotifyError, "Error", "No se encontró el usuario logueado")
		return appErrors.ErrNoSession
	}

	draft, err := s.prompter.EventForm("Crear Evento", nil)
	if err != nil {
		return err
	}
	if draft == nil {
		return nil
	}

	vd, err := s.validateDraft(*draft)
	if err != nil {
		s.prompter.Notify(NotifyError, "Error al crear evento", errmsg.Translate(err))
		return err
	}

	if _, err := s.api.CreateEvent(ctx, vd.draft, vd.date, sess.UserID); err != nil {
		s.prompter.Notify(NotifyError, "Error al crear evento", errmsg.Translate(err))
		return err
	}

	s.prompter.Notify(NotifySuccess, "Evento creado", "")
	return s.refresh(ctx)
}

// EditFlow prompts with the event's current values and submits the update.
func (s *EventService) EditFlow(ctx context.Context, event models.Event) error {
	if !s.begin() {
		return nil
	}
	defer s.end()

	initial := &models.EventDraft{
		Title:       event.Title,
		Description: event.Description,
		Location:    event.Location,
		Date:        event.Date.Local().Format(eventDateLayout),
	}

	draft, err := s.prompter.EventForm("Editar Evento", initial)
	if err != nil {
		return err
	}
	if draft == nil {
		return nil
	}

	vd, err := s.validateDraft(*draft)
	if err != nil {
		s.prompter.Notify(NotifyError, "Error al actualizar evento", errmsg.Translate(err))
		return err
	}

	if _, err := s.api.UpdateEvent(ctx, event.ID, vd.draft, vd.date); err != nil {
		s.prompter.Notify(NotifyError, "Error al actualizar evento", errmsg.Translate(err))
		return err
	}

	s.prompter.Notify(NotifySuccess, "Evento actualizado", "")
	return s.refresh(ctx)
}

// DeleteFlow asks for confirmation and deletes the event.
func (s *EventService) DeleteFlow(ctx context.Context, event models.Event) error {
	if !s.begin() {
		return nil
	}
	defer s.end()

	confirmed, err := s.prompter.Confirm("¿Estás seguro?", "Se eliminará el evento")
	if err != nil {
		return err
	}
	if !confirmed {
		return nil
	}

	if err := s.api.DeleteEvent(ctx, event.ID); err != nil {
		s.prompter.Notify(NotifyError, "Error al eliminar", errmsg.Translate(err))
		return err
	}

	s.prompter.Notify(NotifySuccess, "Eliminado", "El evento fue eliminado")
	return s.refresh(ctx)
}

// ShowDetails renders the full event in the details modal.
func (s *EventService) ShowDetails(event models.Event) {
	s.prompter.Details(event)
}

// LoginFlow authenticates and persists the session. A failed login never
// saves anything: the session is either fully present or fully absent.
func (s *EventService) LoginFlow(ctx context.Context, email, password string) error {
	if !s.begin() {
		return nil
	}
	defer s.end()

	req := models.LoginRequest{Email: email, Password: password}
	if err := s.validate.Struct(req); err != nil {
		e := appErrors.Wrap(err, appErrors.CodeLocalValidation, 400, MsgFieldsRequired)
		s.prompter.Notify(NotifyError, "Error al iniciar sesión", errmsg.Translate(e))
		return e
	}

	res, err := s.api.Login(ctx, email, password)
	if err != nil {
		s.prompter.Notify(NotifyError, "Error al iniciar sesión", errmsg.Translate(err))
		return err
	}

	sess := models.Session{Token: res.Token, UserID: res.User.ID, Name: res.User.Name}
	if !sess.Complete() {
		e := appErrors.New(appErrors.CodeTransport, 0, "incomplete login response")
		s.prompter.Notify(NotifyError, "Error al iniciar sesión", errmsg.Translate(e))
		return e
	}
	if err := s.store.Save(sess); err != nil {
		s.prompter.Notify(NotifyError, "Error al iniciar sesión", "No se pudo guardar la sesión")
		return err
	}

	s.logger.Info("logged in", zap.Int64("user_id", sess.UserID))
	return nil
}

// RegisterFlow creates an account. On success the caller returns to login.
func (s *EventService) RegisterFlow(ctx context.Context, name, email, password string) error {
	if !s.begin() {
		return nil
	}
	defer s.end()

	req := models.RegisterRequest{Name: name, Email: email, Password: password}
	if err := s.validate.Struct(req); err != nil {
		e := appErrors.Wrap(err, appErrors.CodeLocalValidation, 400, MsgFieldsRequired)
		s.prompter.Notify(NotifyError, "Error al registrar", errmsg.Translate(e))
		return e
	}

	if err := s.api.Register(ctx, name, email, password); err != nil {
		s.prompter.Notify(NotifyError, "Error al registrar", errmsg.Translate(err))
		return err
	}

	s.prompter.Notify(NotifySuccess, "Registro exitoso", "Ya puedes iniciar sesión")
	return nil
}

// Logout clears the persisted session and resets the held state.
func (s *EventService) Logout() error {
	s.mu.Lock()
	s.events = nil
	s.state = StateIdle
	s.spec = models.DefaultSort
	s.mu.Unlock()
	return s.store.Clear()
}
