// Package validator calls the external AI service that confirms or
// rejects a claimed encounter.
package validator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Verdict is the closed classification of a validation call's outcome.
type Verdict int

const (
	// VerdictAccepted: the encounter is genuine, finalize it.
	VerdictAccepted Verdict = iota
	// VerdictRejectedEncounter: the validator rejected the claimed encounter.
	VerdictRejectedEncounter
	// VerdictRejectedImage: the submitted image could not be matched.
	VerdictRejectedImage
	// VerdictError: the validator failed or answered something
	// unclassifiable; never finalize on this.
	VerdictError
)

func (v Verdict) String() string {
	switch v {
	case VerdictAccepted:
		return "accepted"
	case VerdictRejectedEncounter:
		return "rejected-encounter"
	case VerdictRejectedImage:
		return "rejected-image"
	default:
		return "validator-error"
	}
}

// VerdictFromStatus maps the validator's HTTP status onto a Verdict.
// Unknown statuses map to VerdictError so an ambiguous response can
// never finalize an encounter.
func VerdictFromStatus(code int) Verdict {
	switch {
	case code >= 200 && code < 300:
		return VerdictAccepted
	case code == http.StatusBadRequest:
		return VerdictRejectedEncounter
	case code == http.StatusNotFound:
		return VerdictRejectedImage
	default:
		return VerdictError
	}
}

// Client is the HTTP gateway to the validator service. One instance is
// shared across requests; every call is bounded by Timeout so a slow
// validator cannot hold an encounter transaction open indefinitely.
type Client struct {
	BaseURL string
	Timeout time.Duration
	HTTP    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: timeout,
		HTTP:    &http.Client{},
	}
}

type validateRequest struct {
	UserID      string `json:"userId"`
	WallyID     string `json:"wallyId"`
	EncounterID string `json:"encounterId"`
}

// Validate asks the external service to confirm the encounter. The
// returned error is non-nil only alongside VerdictError; callers can
// rely on the verdict alone. No retries: a transient failure surfaces
// as VerdictError and the whole registration is the retry unit.
func (c *Client) Validate(ctx context.Context, userID, wallyID, encounterID string) (Verdict, error) {
	body, err := json.Marshal(validateRequest{UserID: userID, WallyID: wallyID, EncounterID: encounterID})
	if err != nil {
		return VerdictError, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/validate-encounter", bytes.NewReader(body))
	if err != nil {
		return VerdictError, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return VerdictError, fmt.Errorf("validator call: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	v := VerdictFromStatus(res.StatusCode)
	if v == VerdictError {
		return v, fmt.Errorf("validator returned status %d", res.StatusCode)
	}
	return v, nil
}
