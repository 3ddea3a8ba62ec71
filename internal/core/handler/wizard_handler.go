package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Nzyazin/invest/internal/core/logger"
	"github.com/Nzyazin/invest/internal/core/models"
	"github.com/Nzyazin/invest/internal/core/usecase"
	"github.com/Nzyazin/invest/internal/core/wizard"
	"github.com/Nzyazin/invest/pkg/config"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

type WizardHandler struct {
	registry *wizard.Registry
	gateways GatewayFactory
	cfg      config.WizardConfig
	obs      wizard.Observer
	log      logger.Logger
}

type WizardResponse struct {
	ID    uuid.UUID `json:"id"`
	Error string    `json:"error,omitempty"`
	wizard.Snapshot[models.TransactionDraft]
}

type OptionsResponse struct {
	Methods           []usecase.MethodInfo `json:"methods"`
	DepositPresets    []decimal.Decimal    `json:"deposit_presets"`
	DepositMinimum    decimal.Decimal      `json:"deposit_minimum"`
	WithdrawalMinimum decimal.Decimal      `json:"withdrawal_minimum"`
}

func NewWizardHandler(registry *wizard.Registry, gateways GatewayFactory, cfg config.WizardConfig, obs wizard.Observer, log logger.Logger) *WizardHandler {
	return &WizardHandler{registry: registry, gateways: gateways, cfg: cfg, obs: obs, log: log}
}

func (h *WizardHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/methods", h.Options).Methods("GET")
	router.HandleFunc("/wizards/{flow:deposit|withdrawal}", h.Start).Methods("POST")
	router.HandleFunc("/wizards/{id}", h.Get).Methods("GET")
	router.HandleFunc("/wizards/{id}", h.Cancel).Methods("DELETE")
	router.HandleFunc("/wizards/{id}/draft", h.UpdateDraft).Methods("PATCH")
	router.HandleFunc("/wizards/{id}/proof", h.UploadProof).Methods("PUT")
	router.HandleFunc("/wizards/{id}/{action:next|back|submit|restart}", h.Act).Methods("POST")
}

func (h *WizardHandler) Options(w http.ResponseWriter, r *http.Request) {
	presets := h.cfg.DepositPresets
	if presets == nil {
		presets = []decimal.Decimal{}
	}
	respondWithJSON(w, http.StatusOK, OptionsResponse{
		Methods:           usecase.Methods(),
		DepositPresets:    presets,
		DepositMinimum:    h.cfg.DepositMinimum,
		WithdrawalMinimum: h.cfg.WithdrawalMinimum,
	})
}

func (h *WizardHandler) Start(w http.ResponseWriter, r *http.Request) {
	sess, ok := requestSession(w, r)
	if !ok {
		return
	}

	gw := h.gateways(sess)
	var tx wizard.Transaction
	switch mux.Vars(r)["flow"] {
	case wizard.FlowDeposit:
		tx = wizard.NewDepositWizard(wizard.DepositConfig{
			Minimum:       h.cfg.DepositMinimum,
			Presets:       h.cfg.DepositPresets,
			ProofMaxBytes: h.cfg.ProofMaxBytes,
		}, gw, sess, h.log, h.obs)
	case wizard.FlowWithdrawal:
		tx = wizard.NewWithdrawalWizard(wizard.WithdrawalConfig{Minimum: h.cfg.WithdrawalMinimum}, gw, sess, h.log, h.obs)
	default:
		respondWithError(w, http.StatusNotFound, "Unknown flow")
		return
	}

	entry := h.registry.Add(sess.Subject(), sess, tx)
	h.log.Info("Wizard opened",
		logger.StringField("wizard_id", entry.ID.String()),
		logger.StringField("flow", mux.Vars(r)["flow"]),
		logger.StringField("user", sess.CurrentUser()))
	respondWithJSON(w, http.StatusCreated, snapshotOf(entry))
}

func (h *WizardHandler) Get(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.lookup(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, snapshotOf(entry))
}

func (h *WizardHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := entry.Wizard.Cancel(); err != nil {
		h.handleWizardError(w, entry, err)
		return
	}
	h.registry.Remove(entry.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *WizardHandler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var update wizard.DraftUpdate
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.log.Warn("Failed to decode draft update", logger.ErrorField("error", err))
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if update.Method != nil {
		if m, ok := models.ParseMethod(string(*update.Method)); ok {
			update.Method = &m
		}
	}

	if err := entry.Wizard.Edit(update.Apply); err != nil {
		h.handleWizardError(w, entry, err)
		return
	}
	respondWithJSON(w, http.StatusOK, snapshotOf(entry))
}

func (h *WizardHandler) UploadProof(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.lookup(w, r)
	if !ok {
		return
	}

	limit := h.cfg.ProofMaxBytes
	if limit <= 0 {
		limit = usecase.DefaultProofMaxBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)
	if err := r.ParseMultipartForm(limit); err != nil {
		h.log.Warn("Failed to parse proof upload", logger.ErrorField("error", err))
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondWithError(w, http.StatusRequestEntityTooLarge, usecase.ErrProofTooLarge.Error())
			return
		}
		respondWithError(w, http.StatusBadRequest, "invalid upload, expected multipart/form-data")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("screenshot")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, usecase.ErrProofRequired.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "could not read upload")
		return
	}

	proof := usecase.NewProof(header.Filename, header.Header.Get("Content-Type"), data)
	if err := usecase.ValidateProof(proof, limit); err != nil {
		h.log.Warn("Proof refused",
			logger.StringField("wizard_id", entry.ID.String()),
			logger.StringField("content_type", proof.ContentType),
			logger.Int64Field("size", proof.Size),
			logger.ErrorField("error", err))
		code := http.StatusBadRequest
		if errors.Is(err, usecase.ErrProofTooLarge) {
			code = http.StatusRequestEntityTooLarge
		}
		respondWithError(w, code, rootMessage(err))
		return
	}

	if err := entry.Wizard.Edit(wizard.DraftUpdate{Proof: proof}.Apply); err != nil {
		h.handleWizardError(w, entry, err)
		return
	}
	respondWithJSON(w, http.StatusOK, snapshotOf(entry))
}

func (h *WizardHandler) Act(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var err error
	switch mux.Vars(r)["action"] {
	case "next":
		err = entry.Wizard.Next()
	case "back":
		err = entry.Wizard.Back()
	case "submit":
		err = entry.Wizard.Submit(r.Context())
	case "restart":
		err = entry.Wizard.Restart()
	}
	if err != nil {
		h.handleWizardError(w, entry, err)
		return
	}
	respondWithJSON(w, http.StatusOK, snapshotOf(entry))
}

// lookup resolves the wizard for its owner and refreshes the wizard's
// session with the credential of this request.
func (h *WizardHandler) lookup(w http.ResponseWriter, r *http.Request) (*wizard.Entry, bool) {
	sess, ok := requestSession(w, r)
	if !ok {
		return nil, false
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusNotFound, "Wizard not found")
		return nil, false
	}

	// Without JWT_SIGNING_KEY the subject is read from an unverified token, so
	// ownership also relies on wizard ids being random and never listed.
	entry, err := h.registry.Get(id, sess.Subject())
	if err != nil {
		h.log.Debug("Wizard not found",
			logger.StringField("wizard_id", id.String()),
			logger.StringField("user", sess.CurrentUser()))
		respondWithError(w, http.StatusNotFound, "Wizard not found")
		return nil, false
	}

	if err := entry.Session.Init(sess.Token()); err != nil {
		h.registry.Remove(entry.ID)
		respondWithError(w, http.StatusUnauthorized, err.Error())
		return nil, false
	}
	return entry, true
}

func (h *WizardHandler) handleWizardError(w http.ResponseWriter, entry *wizard.Entry, err error) {
	var stepErr *wizard.StepError
	switch {
	case errors.As(err, &stepErr):
		resp := snapshotOf(entry)
		resp.Error = stepErr.Message
		switch stepErr.Kind {
		case wizard.KindAuthentication:
			h.registry.Remove(entry.ID)
			respondWithJSON(w, http.StatusUnauthorized, resp)
		case wizard.KindValidation:
			respondWithJSON(w, http.StatusUnprocessableEntity, resp)
		case wizard.KindSubmission:
			respondWithJSON(w, http.StatusBadRequest, resp)
		default:
			respondWithJSON(w, http.StatusBadGateway, resp)
		}
	case errors.Is(err, wizard.ErrWizardCompleted),
		errors.Is(err, wizard.ErrWizardNotCompleted),
		errors.Is(err, wizard.ErrNotAtFinalStep),
		errors.Is(err, wizard.ErrSubmissionInFlight):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, usecase.ErrUnknownMethod),
		errors.Is(err, usecase.ErrMethodRequired),
		errors.Is(err, usecase.ErrFieldNotAllowed):
		respondWithError(w, http.StatusBadRequest, rootMessage(err))
	default:
		h.log.Error("Wizard action failed",
			logger.StringField("wizard_id", entry.ID.String()),
			logger.ErrorField("error", err))
		respondWithError(w, http.StatusInternalServerError, "Failed to process operation")
	}
}

func snapshotOf(entry *wizard.Entry) WizardResponse {
	return WizardResponse{ID: entry.ID, Snapshot: entry.Wizard.Snapshot()}
}

// rootMessage returns the text of the innermost wrapped error, which is the
// user-facing sentinel.
func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
