// Package bluesky is a minimal AT Protocol API client: just enough of
// com.atproto.server/repo/identity to publish feed generator records, force
// a profile's classification by hand, and let the classifier fetch the
// profile records it needs to guess at.
package bluesky

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vanrijn/nederlandskie/internal/domain"
)

const defaultPDS = "https://bsky.social"

// ErrProfileNotFound is returned by FetchProfileRecord when the target
// account has no app.bsky.actor.profile record, which is a perfectly normal
// state for an account that never set a display name or bio.
var ErrProfileNotFound = errors.New("bluesky: profile record not found")

// Client is a minimal BlueSky/AT Protocol API client.
type Client struct {
	pds        string
	httpClient *http.Client

	session *session // populated after Login; refreshed lazily
}

// NewClient creates a new BlueSky API client. If pds is empty, it defaults to
// https://bsky.social.
func NewClient(pds string) *Client {
	if pds == "" {
		pds = defaultPDS
	}
	return &Client{
		pds: pds,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Login authenticates with the PDS and stores the session tokens. Use an App
// Password, not your account password.
func (c *Client) Login(ctx context.Context, identifier, password string) error {
	body := map[string]string{
		"identifier": identifier,
		"password":   password,
	}

	var resp createSessionResponse
	if err := c.post(ctx, "/xrpc/com.atproto.server.createSession", false, body, &resp); err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	c.session = newSession(resp.AccessJwt, resp.RefreshJwt, resp.DID)
	return nil
}

// DID returns the authenticated user's DID. Only valid after Login.
func (c *Client) DID() string {
	if c.session == nil {
		return ""
	}
	return c.session.did
}

// BlobRef represents an AT Protocol blob reference for uploaded content.
type BlobRef struct {
	Type string `json:"$type"`
	Ref  struct {
		Link string `json:"$link"`
	} `json:"ref"`
	MimeType string `json:"mimeType"`
	Size     int    `json:"size"`
}

// FeedGeneratorRecord is the record body for app.bsky.feed.generator.
type FeedGeneratorRecord struct {
	DID         string   `json:"did"`
	DisplayName string   `json:"displayName"`
	Description string   `json:"description,omitempty"`
	Avatar      *BlobRef `json:"avatar,omitempty"`
	CreatedAt   string   `json:"createdAt"`
}

// PublishFeedGenerator creates or updates a feed generator record in the
// authenticated user's repo via com.atproto.repo.putRecord.
func (c *Client) PublishFeedGenerator(ctx context.Context, rkey string, record FeedGeneratorRecord) error {
	if c.session == nil {
		return fmt.Errorf("not authenticated: call Login first")
	}

	body := putRecordRequest{
		Repo:       c.session.did,
		Collection: "app.bsky.feed.generator",
		RKey:       rkey,
		Record:     record,
	}

	var resp json.RawMessage
	if err := c.post(ctx, "/xrpc/com.atproto.repo.putRecord", true, body, &resp); err != nil {
		return fmt.Errorf("put record: %w", err)
	}

	return nil
}

// UnpublishFeedGenerator deletes a feed generator record from the
// authenticated user's repo via com.atproto.repo.deleteRecord.
func (c *Client) UnpublishFeedGenerator(ctx context.Context, rkey string) error {
	if c.session == nil {
		return fmt.Errorf("not authenticated: call Login first")
	}

	body := deleteRecordRequest{
		Repo:       c.session.did,
		Collection: "app.bsky.feed.generator",
		RKey:       rkey,
	}

	var resp json.RawMessage
	if err := c.post(ctx, "/xrpc/com.atproto.repo.deleteRecord", true, body, &resp); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}

	return nil
}

// UploadBlob uploads raw image bytes as a blob and returns a reference.
// The blob will be deleted if not referenced in a record within a time window.
func (c *Client) UploadBlob(ctx context.Context, data []byte, mimeType string) (*BlobRef, error) {
	if c.session == nil {
		return nil, fmt.Errorf("not authenticated: call Login first")
	}
	if err := c.ensureValidSession(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.pds+"/xrpc/com.atproto.repo.uploadBlob", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mimeType)
	req.Header.Set("Authorization", "Bearer "+c.session.accessJwt)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apiError(resp.StatusCode, respBody)
	}

	var result uploadBlobResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return &result.Blob, nil
}

// ResolveHandle resolves a handle (e.g. "alice.bsky.social") to its DID via
// com.atproto.identity.resolveHandle. It does not require authentication.
func (c *Client) ResolveHandle(ctx context.Context, handle string) (string, error) {
	path := fmt.Sprintf("/xrpc/com.atproto.identity.resolveHandle?handle=%s", handle)

	var resp resolveHandleResponse
	if err := c.get(ctx, path, false, &resp); err != nil {
		return "", fmt.Errorf("resolve handle: %w", err)
	}
	return resp.DID, nil
}

// FetchProfileRecord fetches an account's app.bsky.actor.profile record via
// com.atproto.repo.getRecord. It returns ErrProfileNotFound, not a generic
// error, when the account simply has no profile record.
func (c *Client) FetchProfileRecord(ctx context.Context, did string) (*domain.ProfileRecord, error) {
	path := fmt.Sprintf("/xrpc/com.atproto.repo.getRecord?repo=%s&collection=app.bsky.actor.profile&rkey=self", did)

	var resp getRecordResponse
	if err := c.get(ctx, path, false, &resp); err != nil {
		var xrpcErr *xrpcError
		if errors.As(err, &xrpcErr) && isMissingRecordError(xrpcErr) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("get record: %w", err)
	}

	var value profileRecordValue
	if err := json.Unmarshal(resp.Value, &value); err != nil {
		return nil, fmt.Errorf("unmarshal profile record: %w", err)
	}

	return &domain.ProfileRecord{DisplayName: value.DisplayName, Description: value.Description}, nil
}

func isMissingRecordError(err *xrpcError) bool {
	if err.status != http.StatusBadRequest {
		return false
	}
	if err.Error == "RecordNotFound" {
		return true
	}
	return err.Error == "InvalidRequest" &&
		(strings.HasPrefix(err.Message, "Could not locate record") || strings.HasPrefix(err.Message, "Could not find repo"))
}

func (c *Client) ensureValidSession(ctx context.Context) error {
	if c.session == nil {
		return fmt.Errorf("not authenticated: call Login first")
	}
	if !c.session.needsRefresh() {
		return nil
	}

	body := struct{}{}
	var resp createSessionResponse
	if err := c.postWithToken(ctx, "/xrpc/com.atproto.server.refreshSession", c.session.refreshJwt, body, &resp); err != nil {
		return fmt.Errorf("refresh session: %w", err)
	}
	c.session = newSession(resp.AccessJwt, resp.RefreshJwt, resp.DID)
	return nil
}

func (c *Client) get(ctx context.Context, path string, authenticated bool, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.pds+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if authenticated {
		if err := c.ensureValidSession(ctx); err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.session.accessJwt)
	}

	return c.do(req, result)
}

func (c *Client) post(ctx context.Context, path string, authenticated bool, body any, result any) error {
	if authenticated {
		if err := c.ensureValidSession(ctx); err != nil {
			return err
		}
		return c.postWithToken(ctx, path, c.session.accessJwt, body, result)
	}
	return c.postWithToken(ctx, path, "", body, result)
}

func (c *Client) postWithToken(ctx context.Context, path, token string, body any, result any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.pds+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.do(req, result)
}

func (c *Client) do(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp.StatusCode, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}

// xrpcError is the decoded body of a non-2xx XRPC response.
type xrpcError struct {
	status  int
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (e *xrpcError) Error() string {
	return fmt.Sprintf("API error (status %d): %s: %s", e.status, e.Error, e.Message)
}

func apiError(status int, body []byte) error {
	xe := &xrpcError{status: status}
	if err := json.Unmarshal(body, xe); err != nil {
		return fmt.Errorf("API error (status %d): %s", status, string(body))
	}
	return xe
}

type createSessionResponse struct {
	AccessJwt  string `json:"accessJwt"`
	RefreshJwt string `json:"refreshJwt"`
	DID        string `json:"did"`
	Handle     string `json:"handle"`
}

type resolveHandleResponse struct {
	DID string `json:"did"`
}

type getRecordResponse struct {
	URI   string          `json:"uri"`
	CID   string          `json:"cid"`
	Value json.RawMessage `json:"value"`
}

type profileRecordValue struct {
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
}

type putRecordRequest struct {
	Repo       string `json:"repo"`
	Collection string `json:"collection"`
	RKey       string `json:"rkey"`
	Record     any    `json:"record"`
}

type deleteRecordRequest struct {
	Repo       string `json:"repo"`
	Collection string `json:"collection"`
	RKey       string `json:"rkey"`
}

type uploadBlobResponse struct {
	Blob BlobRef `json:"blob"`
}
