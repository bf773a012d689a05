package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Mantelijo/multichain-wallet/internal/clarity"
	"github.com/hashicorp/go-retryablehttp"
)

// Transaction statuses reported by the Stacks API
const (
	StacksTxPending              = "pending"
	StacksTxSuccess              = "success"
	StacksTxAbortByResponse      = "abort_by_response"
	StacksTxAbortByPostCondition = "abort_by_post_condition"
	stacksTxDroppedPrefix        = "dropped_"
)

const (
	maxStacksResponseBytes = 4 << 20

	defaultStacksAPIRetries      = 3
	defaultStacksAPIRetryWaitMin = 250 * time.Millisecond
	defaultStacksAPIRetryWaitMax = 2 * time.Second
	defaultStacksAPITimeout      = 30 * time.Second
)

// StacksTxStatus is the subset of the transaction resource the adapter
// uses.
type StacksTxStatus struct {
	TxID        string          `json:"tx_id"`
	TxStatus    string          `json:"tx_status"`
	TxType      string          `json:"tx_type,omitempty"`
	BlockHeight uint64          `json:"block_height,omitempty"`
	TxResult    *StacksTxResult `json:"tx_result,omitempty"`
}

type StacksTxResult struct {
	Hex  string `json:"hex"`
	Repr string `json:"repr"`
}

func classifyStacksTx(s StacksTxStatus) Verdict {
	switch {
	case s.TxStatus == StacksTxSuccess:
		return Verdict{State: TxConfirmed}
	case s.TxStatus == StacksTxAbortByResponse,
		s.TxStatus == StacksTxAbortByPostCondition,
		strings.HasPrefix(s.TxStatus, stacksTxDroppedPrefix):
		return Verdict{State: TxFailed, Reason: s.TxStatus}
	}
	return Verdict{State: TxPending}
}

// NewStacksHTTPClient returns the retrying client used for the Stacks API.
// Server errors and rate limits are retried, any other status is returned to
// the caller as is.
func NewStacksHTTPClient() *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.Logger = slog.Default()
	c.RetryMax = defaultStacksAPIRetries
	c.RetryWaitMin = defaultStacksAPIRetryWaitMin
	c.RetryWaitMax = defaultStacksAPIRetryWaitMax
	c.HTTPClient.Timeout = defaultStacksAPITimeout
	c.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return c
}

type stacksAPI struct {
	client *retryablehttp.Client
}

type readOnlyRequest struct {
	Sender    string   `json:"sender"`
	Arguments []string `json:"arguments"`
}

type readOnlyResponse struct {
	Okay   bool   `json:"okay"`
	Result string `json:"result"`
	Cause  string `json:"cause"`
}

func (a *stacksAPI) callReadOnly(
	ctx context.Context,
	network StacksNetwork,
	sender, contractAddress, contractName, function string,
	args []clarity.Value,
) (clarity.Value, error) {
	encoded := make([]string, len(args))
	for i, arg := range args {
		h, err := clarity.ToHex(arg)
		if err != nil {
			return nil, &ReadCallError{Method: function, Reason: fmt.Sprintf("argument %d", i), Err: err}
		}
		encoded[i] = h
	}

	body, err := json.Marshal(readOnlyRequest{Sender: sender, Arguments: encoded})
	if err != nil {
		return nil, fmt.Errorf("failed to encode read-only request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v2/contracts/call-read/%s/%s/%s",
		network.CoreAPIURL,
		url.PathEscape(contractAddress),
		url.PathEscape(contractName),
		url.PathEscape(function),
	)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create read-only request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, &ReadCallError{Method: function, Reason: "request failed", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxStacksResponseBytes))
	if err != nil {
		return nil, &ReadCallError{Method: function, Status: resp.StatusCode, Reason: "failed to read response", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ReadCallError{Method: function, Status: resp.StatusCode, Reason: strings.TrimSpace(string(raw))}
	}

	var out readOnlyResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &ReadCallError{Method: function, Status: resp.StatusCode, Reason: "malformed response", Err: err}
	}
	if !out.Okay {
		return nil, &ReadCallError{Method: function, Status: resp.StatusCode, Reason: out.Cause}
	}

	v, err := clarity.FromHex(out.Result)
	if err != nil {
		return nil, &ReadCallError{Method: function, Status: resp.StatusCode, Reason: "undecodable result", Err: err}
	}
	return v, nil
}

// transactionStatus fetches a transaction. Transactions the API has not
// indexed yet are reported as pending.
func (a *stacksAPI) transactionStatus(ctx context.Context, network StacksNetwork, txID string) (StacksTxStatus, error) {
	endpoint := fmt.Sprintf("%s/extended/v1/tx/%s", network.CoreAPIURL, url.PathEscape(txID))
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return StacksTxStatus{}, fmt.Errorf("failed to create status request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return StacksTxStatus{}, fmt.Errorf("failed to fetch transaction %s: %w", txID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return StacksTxStatus{TxID: txID, TxStatus: StacksTxPending}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return StacksTxStatus{}, fmt.Errorf("failed to fetch transaction %s: status %d", txID, resp.StatusCode)
	}

	var status StacksTxStatus
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxStacksResponseBytes)).Decode(&status); err != nil {
		return StacksTxStatus{}, fmt.Errorf("failed to decode transaction %s: %w", txID, err)
	}
	return status, nil
}
