package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Nzyazin/invest/internal/core/logger"
	"github.com/Nzyazin/invest/internal/core/models"
	"github.com/Nzyazin/invest/internal/core/usecase"
	"github.com/gorilla/mux"
)

// PortfolioHandler serves the read side: plans, earnings, wallet and
// transaction history, plus investing in a plan.
type PortfolioHandler struct {
	gateways GatewayFactory
	now      func() time.Time
	log      logger.Logger
}

type AcknowledgementResponse struct {
	Message string `json:"message"`
}

func NewPortfolioHandler(gateways GatewayFactory, now func() time.Time, log logger.Logger) *PortfolioHandler {
	if now == nil {
		now = time.Now
	}
	return &PortfolioHandler{gateways: gateways, now: now, log: log}
}

func (h *PortfolioHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/portfolio", h.Portfolio).Methods("GET")
	router.HandleFunc("/plans", h.Plans).Methods("GET")
	router.HandleFunc("/plans/history", h.PlanHistory).Methods("GET")
	router.HandleFunc("/plans/{id:[0-9]+}/invest", h.Invest).Methods("POST")
	router.HandleFunc("/dashboard", h.Dashboard).Methods("GET")
	router.HandleFunc("/history/deposits", h.history(models.OperationDeposit)).Methods("GET")
	router.HandleFunc("/history/withdrawals", h.history(models.OperationWithdraw)).Methods("GET")
}

func (h *PortfolioHandler) Portfolio(w http.ResponseWriter, r *http.Request) {
	sess, ok := requestSession(w, r)
	if !ok {
		return
	}

	summary, err := usecase.NewPortfolioUsecase(h.gateways(sess), h.log, h.now).Overview(r.Context())
	if err != nil {
		handleGatewayError(w, h.log, "portfolio", err)
		return
	}
	respondWithJSON(w, http.StatusOK, summary)
}

func (h *PortfolioHandler) Plans(w http.ResponseWriter, r *http.Request) {
	sess, ok := requestSession(w, r)
	if !ok {
		return
	}

	plans, err := usecase.NewInvestUsecase(h.gateways(sess), h.log).Plans(r.Context())
	if err != nil {
		handleGatewayError(w, h.log, "plans", err)
		return
	}
	respondWithJSON(w, http.StatusOK, plans)
}

func (h *PortfolioHandler) PlanHistory(w http.ResponseWriter, r *http.Request) {
	sess, ok := requestSession(w, r)
	if !ok {
		return
	}

	stats, err := usecase.NewPortfolioUsecase(h.gateways(sess), h.log, h.now).PlanHistory(r.Context())
	if err != nil {
		handleGatewayError(w, h.log, "plan history", err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

func (h *PortfolioHandler) Invest(w http.ResponseWriter, r *http.Request) {
	sess, ok := requestSession(w, r)
	if !ok {
		return
	}

	planID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid plan id")
		return
	}

	ack, err := usecase.NewInvestUsecase(h.gateways(sess), h.log).Invest(r.Context(), planID)
	if err != nil {
		handleGatewayError(w, h.log, "invest", err)
		return
	}

	h.log.Info("Investment request accepted",
		logger.Int64Field("plan_id", planID),
		logger.StringField("user", sess.CurrentUser()))
	respondWithJSON(w, http.StatusOK, AcknowledgementResponse{Message: ack.Message})
}

func (h *PortfolioHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	sess, ok := requestSession(w, r)
	if !ok {
		return
	}

	dashboard, err := usecase.NewHistoryUsecase(h.gateways(sess), h.log).Dashboard(r.Context(), sess.CurrentUser())
	if err != nil {
		handleGatewayError(w, h.log, "dashboard", err)
		return
	}
	respondWithJSON(w, http.StatusOK, dashboard)
}

func (h *PortfolioHandler) history(op models.OperationType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := requestSession(w, r)
		if !ok {
			return
		}

		history, err := usecase.NewHistoryUsecase(h.gateways(sess), h.log).History(r.Context(), op)
		if err != nil {
			handleGatewayError(w, h.log, string(op)+" history", err)
			return
		}
		respondWithJSON(w, http.StatusOK, history)
	}
}
