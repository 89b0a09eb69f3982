package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/platinummonkey/launchpad/pkg/api"
	"github.com/platinummonkey/launchpad/pkg/billing"
	"github.com/platinummonkey/launchpad/pkg/httputil"
)

const defaultServer = "http://localhost:8080"

// Client calls a running launchpad server on behalf of one token holder
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates an API client
func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    httpClient,
	}
}

// APIError is a non-2xx response
type APIError struct {
	Status  int
	Kind    string
	Message string
}

func (e *APIError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server returned %d (%s): %s", e.Status, e.Kind, e.Message)
}

// Profile fetches the caller's profile and billing record
func (c *Client) Profile(ctx context.Context) (*billing.Profile, error) {
	var resp api.ProfileResponse
	if err := c.do(ctx, http.MethodGet, "/api/user/profile", nil, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// BuyCredits buys one credit pack
func (c *Client) BuyCredits(ctx context.Context, req billing.CreditPurchase) (*billing.CreditReceipt, error) {
	var resp api.CreditsResponse
	if err := c.do(ctx, http.MethodPost, "/api/user/billing/credits", req, &resp); err != nil {
		return nil, err
	}
	return resp.Receipt, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var errBody httputil.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errBody); err == nil {
			apiErr.Kind = errBody.Kind
			apiErr.Message = errBody.Error
		} else {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// serverFlags registers -server and -token with environment defaults
func serverFlags(env *Env, fs *flag.FlagSet) (server, token *string) {
	server = fs.String("server", env.env("LAUNCHPAD_SERVER", defaultServer), "Server URL")
	token = fs.String("token", env.env("LAUNCHPAD_TOKEN", ""), "Bearer token (see the token command)")
	return server, token
}

func newProfileCommand(env *Env) *Command {
	cmd := &Command{
		Name:        "profile",
		Description: "Show the caller's profile and billing record",
		Flags:       newFlagSet("profile"),
	}
	server, token := serverFlags(env, cmd.Flags)

	cmd.Run = func(args []string) error {
		if err := cmd.Flags.Parse(args); err != nil {
			return err
		}
		if *token == "" {
			return fmt.Errorf("-token is required")
		}

		profile, err := NewClient(*server, *token, env.HTTPClient).Profile(context.Background())
		if err != nil {
			return err
		}
		return printJSON(env.Out, profile)
	}
	return cmd
}

func newBuyCreditsCommand(env *Env) *Command {
	cmd := &Command{
		Name:        "buy-credits",
		Description: "Buy a credit pack for the caller",
		Flags:       newFlagSet("buy-credits"),
	}
	server, token := serverFlags(env, cmd.Flags)
	pool := cmd.Flags.String("pool", "", "Credit pool (image, document)")
	quantity := cmd.Flags.Int("quantity", 0, "Pack size to buy")
	projectID := cmd.Flags.Int64("project", 0, "Project the document credits are for")

	cmd.Run = func(args []string) error {
		if err := cmd.Flags.Parse(args); err != nil {
			return err
		}
		if *token == "" {
			return fmt.Errorf("-token is required")
		}
		if *pool == "" || *quantity <= 0 {
			return fmt.Errorf("-pool and a positive -quantity are required")
		}

		req := billing.CreditPurchase{Pool: *pool, Quantity: *quantity}
		if *projectID > 0 {
			req.ProjectID = projectID
		}

		receipt, err := NewClient(*server, *token, env.HTTPClient).BuyCredits(context.Background(), req)
		if err != nil {
			return err
		}
		env.Logger.WithFields(map[string]interface{}{
			"purchase_id": receipt.PurchaseID,
			"pool":        receipt.Pool,
		}).Info("Credits purchased")
		fmt.Fprintf(env.Out, "%s balance: %d\n", receipt.Pool, receipt.Balance)
		return nil
	}
	return cmd
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
