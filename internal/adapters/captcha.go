package adapters

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"introportal_backend/platform/apperr"
	"introportal_backend/platform/config"
	"introportal_backend/platform/logger"
)

// TurnstileVerifier checks challenge tokens against the Turnstile
// siteverify endpoint.
type TurnstileVerifier struct {
	client    *http.Client
	verifyURL string
	secret    string
	log       *logger.Logger
}

// NewTurnstileVerifier creates a verifier from config. Returns nil when no
// secret is configured so callers can skip the gate entirely.
func NewTurnstileVerifier(cfg config.CaptchaConfig, log *logger.Logger) *TurnstileVerifier {
	if !cfg.IsCaptchaEnabled() {
		return nil
	}
	return &TurnstileVerifier{
		client:    &http.Client{Timeout: 10 * time.Second},
		verifyURL: cfg.GetCaptchaVerifyURL(),
		secret:    cfg.GetCaptchaSecret(),
		log:       log,
	}
}

type verifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify checks the challenge token. A missing or rejected token is a
// validation error; an unreachable verifier is a transient failure.
func (v *TurnstileVerifier) Verify(ctx context.Context, token, remoteIP string) error {
	if token == "" {
		return apperr.Validation("captcha token is required")
	}

	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "build captcha request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.KindUnavailable, "captcha verification unavailable", err)
	}
	defer resp.Body.Close()

	var result verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return apperr.Wrap(apperr.KindUnavailable, "captcha verification unavailable", err)
	}

	if !result.Success {
		v.log.Warn("captcha verification rejected", "codes", strings.Join(result.ErrorCodes, ","))
		return apperr.Validation("captcha verification failed")
	}

	return nil
}
