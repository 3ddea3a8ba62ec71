package wizard

import (
	"context"
	"errors"
	"sync"

	"github.com/Nzyazin/invest/internal/core/logger"
	"github.com/Nzyazin/invest/internal/core/models"
	"github.com/Nzyazin/invest/internal/core/repository"
	"github.com/Nzyazin/invest/internal/core/session"
)

// Step is a flow's step enum.
type Step interface {
	~int
	String() string
}

type Validator[D any] func(draft *D) error

// Submitter hands the final draft to the backend.
type Submitter[D any] func(ctx context.Context, draft *D) (models.Acknowledgement, error)

// Flow configures one wizard: its ordered input steps, the terminal success
// step, a validator per input step and the submitter.
type Flow[S Step, D any] struct {
	Name       string
	Steps      []S
	Success    S
	Validators map[S]Validator[D]
	Submit     Submitter[D]
	NewDraft   func() *D
	CloneDraft func(*D) *D
}

// Observer counts wizard actions.
type Observer interface {
	Transition(flow, action, outcome string)
}

type nopObserver struct{}

func (nopObserver) Transition(string, string, string) {}

// Snapshot is a read-only view of a wizard.
type Snapshot[D any] struct {
	Flow      string     `json:"flow"`
	Step      int        `json:"step"`
	StepName  string     `json:"step_name"`
	Steps     []string   `json:"steps"`
	Completed bool       `json:"completed"`
	InFlight  bool       `json:"in_flight"`
	Draft     *D         `json:"draft"`
	Error     *StepError `json:"step_error,omitempty"`
	Message   string     `json:"message,omitempty"`
}

// Wizard walks a draft through the steps of a Flow. The cursor only moves
// forward on a passing validator and only reaches Success after the backend
// acknowledged the submission.
type Wizard[S Step, D any] struct {
	mu   sync.Mutex
	flow Flow[S, D]
	sess *session.Context
	log  logger.Logger
	obs  Observer

	pos      int // index into flow.Steps; len(flow.Steps) is Success
	draft    *D
	lastErr  *StepError
	message  string
	inFlight bool
}

func New[S Step, D any](flow Flow[S, D], sess *session.Context, log logger.Logger, obs Observer) *Wizard[S, D] {
	if obs == nil {
		obs = nopObserver{}
	}
	return &Wizard[S, D]{
		flow:  flow,
		sess:  sess,
		log:   log,
		obs:   obs,
		draft: flow.NewDraft(),
	}
}

func (w *Wizard[S, D]) Step() S {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.currentLocked()
}

func (w *Wizard[S, D]) Draft() *D {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flow.CloneDraft(w.draft)
}

// LastError is the error attached to the current step, if any.
func (w *Wizard[S, D]) LastError() *StepError {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

// InFlight reports whether a submission is waiting on the backend.
func (w *Wizard[S, D]) InFlight() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.inFlight
}

func (w *Wizard[S, D]) Snapshot() Snapshot[D] {
	w.mu.Lock()
	defer w.mu.Unlock()

	names := make([]string, 0, len(w.flow.Steps)+1)
	for _, s := range w.flow.Steps {
		names = append(names, s.String())
	}
	names = append(names, w.flow.Success.String())

	current := w.currentLocked()
	return Snapshot[D]{
		Flow:      w.flow.Name,
		Step:      int(current),
		StepName:  current.String(),
		Steps:     names,
		Completed: w.completedLocked(),
		InFlight:  w.inFlight,
		Draft:     w.flow.CloneDraft(w.draft),
		Error:     w.lastErr,
		Message:   w.message,
	}
}

// Edit applies fn to a copy of the draft and keeps the copy only if fn
// succeeds.
func (w *Wizard[S, D]) Edit(fn func(draft *D) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.guardLocked(); err != nil {
		return err
	}
	next := w.flow.CloneDraft(w.draft)
	if err := fn(next); err != nil {
		return err
	}
	w.draft = next
	return nil
}

// Next validates the current step and advances. On the last input step it
// does nothing; leaving that step requires Submit.
func (w *Wizard[S, D]) Next() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.guardLocked(); err != nil {
		return err
	}
	if w.pos == len(w.flow.Steps)-1 {
		w.obs.Transition(w.flow.Name, "next", "noop")
		return nil
	}

	step := w.currentLocked()
	if err := w.validateLocked(step); err != nil {
		w.lastErr = newStepError(step, KindValidation, err.Error(), err)
		w.obs.Transition(w.flow.Name, "next", "invalid")
		w.log.Debug("Wizard step rejected",
			logger.StringField("flow", w.flow.Name),
			logger.StringField("step", step.String()),
			logger.ErrorField("error", err))
		return w.lastErr
	}

	w.pos++
	w.lastErr = nil
	w.obs.Transition(w.flow.Name, "next", "ok")
	w.log.Debug("Wizard advanced",
		logger.StringField("flow", w.flow.Name),
		logger.StringField("from", step.String()),
		logger.StringField("to", w.currentLocked().String()))
	return nil
}

// Back moves one step back, keeping everything already entered.
func (w *Wizard[S, D]) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.guardLocked(); err != nil {
		return err
	}
	if w.pos == 0 {
		w.obs.Transition(w.flow.Name, "back", "noop")
		return nil
	}

	w.pos--
	w.lastErr = nil
	w.obs.Transition(w.flow.Name, "back", "ok")
	return nil
}

// Submit sends the draft from the final input step. Invalid input never
// reaches the backend. On a refused or failed call the draft is kept and
// the error attached to the step; a 401 ends the session and drops the
// draft.
func (w *Wizard[S, D]) Submit(ctx context.Context) error {
	w.mu.Lock()
	if err := w.guardLocked(); err != nil {
		w.mu.Unlock()
		return err
	}
	if w.pos != len(w.flow.Steps)-1 {
		w.mu.Unlock()
		return ErrNotAtFinalStep
	}

	for _, step := range w.flow.Steps {
		if err := w.validateLocked(step); err != nil {
			w.lastErr = newStepError(step, KindValidation, err.Error(), err)
			w.obs.Transition(w.flow.Name, "submit", "invalid")
			w.mu.Unlock()
			return w.lastErr
		}
	}

	if w.sess == nil || !w.sess.IsAuthenticated() {
		err := w.expireLocked(repository.ErrUnauthorized)
		w.mu.Unlock()
		return err
	}

	payload := w.flow.CloneDraft(w.draft)
	step := w.currentLocked()
	w.inFlight = true
	w.lastErr = nil
	w.mu.Unlock()

	ack, err := w.flow.Submit(ctx, payload)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.inFlight = false

	if err == nil {
		w.pos = len(w.flow.Steps)
		w.draft = w.flow.NewDraft()
		w.message = ack.Message
		w.obs.Transition(w.flow.Name, "submit", "ok")
		w.log.Info("Transaction submitted",
			logger.StringField("flow", w.flow.Name),
			logger.StringField("user", w.sess.CurrentUser()))
		return nil
	}

	var apiErr *repository.APIError
	switch {
	case errors.Is(err, repository.ErrUnauthorized):
		w.sess.Clear()
		return w.expireLocked(err)
	case errors.As(err, &apiErr):
		w.lastErr = newStepError(step, KindSubmission, apiErr.Message, err)
		w.obs.Transition(w.flow.Name, "submit", "rejected")
		w.log.Warn("Transaction rejected",
			logger.StringField("flow", w.flow.Name),
			logger.IntField("status", apiErr.StatusCode),
			logger.StringField("message", apiErr.Message))
	default:
		w.lastErr = newStepError(step, KindNetwork, repository.ErrTransport.Error(), err)
		w.obs.Transition(w.flow.Name, "submit", "network")
		w.log.Error("Transaction submission failed",
			logger.StringField("flow", w.flow.Name),
			logger.ErrorField("error", err))
	}
	return w.lastErr
}

// Restart begins a new run after a successful submission.
func (w *Wizard[S, D]) Restart() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.completedLocked() {
		return ErrWizardNotCompleted
	}
	w.resetLocked()
	w.obs.Transition(w.flow.Name, "restart", "ok")
	return nil
}

// Cancel drops the draft and returns to the first step. Nothing is sent to
// the backend since nothing was stored there.
func (w *Wizard[S, D]) Cancel() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.inFlight {
		return ErrSubmissionInFlight
	}
	w.resetLocked()
	w.obs.Transition(w.flow.Name, "cancel", "ok")
	return nil
}

func (w *Wizard[S, D]) currentLocked() S {
	if w.completedLocked() {
		return w.flow.Success
	}
	return w.flow.Steps[w.pos]
}

func (w *Wizard[S, D]) completedLocked() bool {
	return w.pos >= len(w.flow.Steps)
}

func (w *Wizard[S, D]) guardLocked() error {
	if w.inFlight {
		return ErrSubmissionInFlight
	}
	if w.completedLocked() {
		return ErrWizardCompleted
	}
	return nil
}

func (w *Wizard[S, D]) validateLocked(step S) error {
	validate, ok := w.flow.Validators[step]
	if !ok {
		return nil
	}
	return validate(w.draft)
}

func (w *Wizard[S, D]) resetLocked() {
	w.pos = 0
	w.draft = w.flow.NewDraft()
	w.lastErr = nil
	w.message = ""
}

// expireLocked drops the run after the credential was refused.
func (w *Wizard[S, D]) expireLocked(cause error) error {
	w.resetLocked()
	w.lastErr = newStepError(w.flow.Steps[0], KindAuthentication, repository.ErrUnauthorized.Error(), cause)
	w.obs.Transition(w.flow.Name, "submit", "unauthorized")
	w.log.Warn("Session expired during wizard, draft discarded",
		logger.StringField("flow", w.flow.Name))
	return w.lastErr
}

func newStepError[S Step](step S, kind ErrorKind, message string, err error) *StepError {
	return &StepError{
		Step:     int(step),
		StepName: step.String(),
		Kind:     kind,
		Message:  message,
		Err:      err,
	}
}
