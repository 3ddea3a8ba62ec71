package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/Nzyazin/invest/internal/core/logger"
	"github.com/Nzyazin/invest/internal/core/models"
	"github.com/Nzyazin/invest/internal/core/repository"
	"github.com/Nzyazin/invest/internal/core/session"
	"github.com/Nzyazin/invest/pkg/apiclient"
	"github.com/google/uuid"
)

const (
	pathDeposit           = "/transactions/deposit/"
	pathWithdraw          = "/transactions/withdraw/"
	pathInvest            = "/transactions/invest/"
	pathPlans             = "/transactions/plans/"
	pathPlanHistory       = "/transactions/plans/history/"
	pathProfitHistory     = "/transactions/profit/history/"
	pathWalletDetail      = "/transactions/wallet/detail/"
	pathDepositHistory    = "/transactions/deposit/history/"
	pathWithdrawalHistory = "/transactions/withdraw/history/"

	maxReplyBytes = 1 << 20

	defaultDepositMessage    = "Your deposit request is successfully submitted. Amount will be added soon."
	defaultWithdrawalMessage = "Withdrawal request submitted."
	defaultInvestMessage     = "Investment activated successfully."
)

// Observer receives one sample per backend call.
type Observer interface {
	ObserveCall(endpoint, outcome string, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveCall(string, string, time.Duration) {}

type backendGateway struct {
	client *apiclient.Client
	sess   *session.Context
	log    logger.Logger
	obs    Observer
}

// NewBackendGateway builds a gateway that authenticates every call with the
// credential held by sess. A 401 reply clears sess.
func NewBackendGateway(client *apiclient.Client, sess *session.Context, log logger.Logger, obs Observer) repository.BackendGateway {
	if obs == nil {
		obs = nopObserver{}
	}
	return &backendGateway{client: client, sess: sess, log: log, obs: obs}
}

func (g *backendGateway) SubmitDeposit(ctx context.Context, req models.DepositRequest) (models.Acknowledgement, error) {
	body, contentType, err := encodeDeposit(req)
	if err != nil {
		return models.Acknowledgement{}, fmt.Errorf("encode deposit: %w", err)
	}

	var ack models.Acknowledgement
	if err := g.do(ctx, http.MethodPost, pathDeposit, body, contentType, &ack); err != nil {
		return models.Acknowledgement{}, err
	}
	if ack.Message == "" {
		ack.Message = defaultDepositMessage
	}
	return ack, nil
}

func (g *backendGateway) SubmitWithdrawal(ctx context.Context, req models.WithdrawalRequest) (models.Acknowledgement, error) {
	payload, err := json.Marshal(withdrawalBody{
		Amount:       json.Number(req.Amount.String()),
		Method:       req.Method,
		BankName:     req.BankName,
		AccountOwner: req.AccountOwner,
		BankAccount:  req.BankAccount,
	})
	if err != nil {
		return models.Acknowledgement{}, fmt.Errorf("encode withdrawal: %w", err)
	}

	var ack models.Acknowledgement
	if err := g.do(ctx, http.MethodPost, pathWithdraw, bytes.NewReader(payload), "application/json", &ack); err != nil {
		return models.Acknowledgement{}, err
	}
	if ack.Message == "" {
		ack.Message = defaultWithdrawalMessage
	}
	return ack, nil
}

func (g *backendGateway) Invest(ctx context.Context, planID int64) (models.Acknowledgement, error) {
	payload, err := json.Marshal(models.InvestRequest{PlanID: planID})
	if err != nil {
		return models.Acknowledgement{}, fmt.Errorf("encode invest: %w", err)
	}

	var ack models.Acknowledgement
	if err := g.do(ctx, http.MethodPost, pathInvest, bytes.NewReader(payload), "application/json", &ack); err != nil {
		return models.Acknowledgement{}, err
	}
	if ack.Message == "" {
		ack.Message = defaultInvestMessage
	}
	return ack, nil
}

func (g *backendGateway) ListPlans(ctx context.Context) ([]models.InvestmentPlan, error) {
	var plans []models.InvestmentPlan
	if err := g.getList(ctx, pathPlans, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

func (g *backendGateway) PlanHistory(ctx context.Context) ([]models.PlanEnrollment, error) {
	var history []models.PlanEnrollment
	if err := g.getList(ctx, pathPlanHistory, &history); err != nil {
		return nil, err
	}
	return history, nil
}

func (g *backendGateway) ProfitHistory(ctx context.Context) ([]models.ProfitRecord, error) {
	var records []models.ProfitRecord
	if err := g.getList(ctx, pathProfitHistory, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (g *backendGateway) WalletDetail(ctx context.Context) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := g.do(ctx, http.MethodGet, pathWalletDetail, nil, "", &wallet); err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (g *backendGateway) DepositHistory(ctx context.Context) ([]models.TransactionLog, error) {
	var logs []models.TransactionLog
	if err := g.getList(ctx, pathDepositHistory, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

func (g *backendGateway) WithdrawalHistory(ctx context.Context) ([]models.TransactionLog, error) {
	var logs []models.TransactionLog
	if err := g.getList(ctx, pathWithdrawalHistory, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

type withdrawalBody struct {
	Amount       json.Number   `json:"amount"`
	Method       models.Method `json:"method"`
	BankName     string        `json:"bank_name,omitempty"`
	AccountOwner string        `json:"account_owner"`
	BankAccount  string        `json:"bank_account"`
}

// getList accepts a bare JSON array or a paginated {"results": [...]} reply.
func (g *backendGateway) getList(ctx context.Context, path string, out any) error {
	var raw json.RawMessage
	if err := g.do(ctx, http.MethodGet, path, nil, "", &raw); err != nil {
		return err
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '{' {
		var page struct {
			Results json.RawMessage `json:"results"`
		}
		if err := json.Unmarshal(raw, &page); err != nil || page.Results == nil {
			return fmt.Errorf("%w: unexpected reply from %s", repository.ErrTransport, path)
		}
		raw = page.Results
	}

	if err := json.Unmarshal(raw, out); err != nil {
		g.log.Error("Failed to decode backend reply",
			logger.StringField("path", path),
			logger.ErrorField("error", err))
		return fmt.Errorf("%w: decode %s: %v", repository.ErrTransport, path, err)
	}
	return nil
}

func (g *backendGateway) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) (err error) {
	start := time.Now()
	defer func() {
		g.obs.ObserveCall(path, outcome(err), time.Since(start))
	}()

	token := g.sess.Token()
	if token == "" {
		return repository.ErrUnauthorized
	}

	req, err := http.NewRequestWithContext(ctx, method, g.client.Endpoint(path), body)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", repository.ErrTransport, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.log.Warn("Backend call failed",
			logger.StringField("method", method),
			logger.StringField("path", path),
			logger.StringField("request_id", requestID),
			logger.ErrorField("error", err))
		return fmt.Errorf("%w: %s %s: %v", repository.ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	reply, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return fmt.Errorf("%w: read reply: %v", repository.ErrTransport, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		g.log.Warn("Backend refused credential, clearing session",
			logger.StringField("path", path),
			logger.StringField("request_id", requestID))
		g.sess.Clear()
		return repository.ErrUnauthorized
	case resp.StatusCode >= http.StatusBadRequest:
		apiErr := decodeAPIError(resp.StatusCode, reply)
		g.log.Warn("Backend rejected request",
			logger.StringField("path", path),
			logger.IntField("status", resp.StatusCode),
			logger.StringField("request_id", requestID),
			logger.ErrorField("error", apiErr))
		return apiErr
	}

	g.log.Debug("Backend call succeeded",
		logger.StringField("method", method),
		logger.StringField("path", path),
		logger.IntField("status", resp.StatusCode),
		logger.DurationField("elapsed", time.Since(start)))

	if out == nil || len(bytes.TrimSpace(reply)) == 0 {
		return nil
	}
	if err := json.Unmarshal(reply, out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", repository.ErrTransport, path, err)
	}
	return nil
}

func outcome(err error) string {
	var apiErr *repository.APIError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, repository.ErrUnauthorized):
		return "unauthorized"
	case errors.As(err, &apiErr):
		return "rejected"
	default:
		return "transport"
	}
}

func encodeDeposit(req models.DepositRequest) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := []struct{ name, value string }{
		{"amount", req.Amount.String()},
		{"method", string(req.Method)},
		{"transaction_id", req.TransactionID},
		{"bank_name", req.BankName},
		{"account_owner", req.AccountOwner},
		{"bank_account", req.BankAccount},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", err
		}
	}

	if req.Screenshot != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="screenshot"; filename=%q`, screenshotName(req.Screenshot)))
		header.Set("Content-Type", req.Screenshot.ContentType)
		part, err := w.CreatePart(header)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(req.Screenshot.Data); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func screenshotName(p *models.Proof) string {
	if p.Filename != "" {
		return p.Filename
	}
	return "screenshot"
}
