package rfced

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// syncUsername is the fixed HTTP Basic auth user for the notify endpoint.
const syncUsername = "dtracksync"

// PostApprovedDraft posts an approved draft to the RFC Editor so they can
// retrieve the data from the tracker and start processing it. Returns the
// response text and an error string (empty on success).
//
// Success requires both HTTP 200 and a body equal to "OK". Every failure,
// transport or protocol, is caught here, logged, and returned as the error
// string; nothing propagates to the caller.
func PostApprovedDraft(ctx context.Context, cfg Config, logger *zap.Logger, postURL, name string) (string, string) {
	logger.Info("Posting RFC Editor notification of approved draft",
		zap.String("draft", name),
		zap.String("url", postURL))

	text, err := postApprovedDraft(ctx, cfg, postURL, name)
	if err != nil {
		// Catch everything so we don't leak errors, convert them into a
		// string instead.
		logger.Error("RFC Editor notification failed",
			zap.String("draft", name),
			zap.Error(err))
		return "", err.Error()
	}

	logger.Info("RFC Editor notification succeeded", zap.String("draft", name))
	return text, ""
}

func postApprovedDraft(ctx context.Context, cfg Config, postURL, name string) (string, error) {
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 20
	}
	client := &http.Client{Timeout: time.Duration(timeout) * time.Second}

	form := url.Values{"draft": {name}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, postURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(syncUsername, cfg.SyncPassword)
	req.Header.Set("Content-type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/plain")

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	text := string(body)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Status code is not 200 OK (it's %d).", resp.StatusCode)
	}
	if text != "OK" {
		return "", fmt.Errorf("Response is not \"OK\" (it's %q).", text)
	}

	return text, nil
}
