// Package drive issues single-shot calls against the Google Drive v3 API
// using a caller-supplied bearer token. The client holds no token state of
// its own; authorization is re-derived per request by the caller.
package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// DefaultBaseURL is the production Drive API endpoint.
const DefaultBaseURL = "https://www.googleapis.com/drive/v3"

// File is the subset of Drive file metadata the service exposes.
type File struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MimeType     string `json:"mimeType"`
	Size         int64  `json:"size,string,omitempty"` // Drive serializes size as a JSON string
	ModifiedTime string `json:"modifiedTime,omitempty"`
}

// FileList is one page of folder contents.
type FileList struct {
	NextPageToken string `json:"nextPageToken,omitempty"`
	Files         []File `json:"files"`
}

// Client is the HTTP client for the Drive API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a Drive client. An empty baseURL selects the
// production endpoint. The provided client must not carry a global timeout:
// content streaming can legitimately outlive any fixed bound, so callers
// bound the metadata/list calls with request-scoped contexts instead.
func NewClient(baseURL string, client *http.Client) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: client}
}

// List returns one page of the folder's children. folderID defaults to the
// drive root when empty.
func (c *Client) List(ctx context.Context, token, folderID, pageToken string) (*FileList, error) {
	if folderID == "" {
		folderID = "root"
	}

	q := url.Values{}
	q.Set("q", fmt.Sprintf("'%s' in parents and trashed = false", escapeQueryTerm(folderID)))
	q.Set("fields", "nextPageToken,files(id,name,mimeType,size,modifiedTime)")
	q.Set("pageSize", "100")
	q.Set("orderBy", "folder,name")
	q.Set("supportsAllDrives", "true")
	q.Set("includeItemsFromAllDrives", "true")
	if pageToken != "" {
		q.Set("pageToken", pageToken)
	}

	var list FileList
	if err := c.doJSON(ctx, http.MethodGet, "/files?"+q.Encode(), token, nil, &list); err != nil {
		return nil, fmt.Errorf("list folder: %w", err)
	}
	return &list, nil
}

// Metadata fetches name, content type, and size for a single file.
func (c *Client) Metadata(ctx context.Context, token, fileID string) (*File, error) {
	q := url.Values{}
	q.Set("fields", "id,name,mimeType,size")
	q.Set("supportsAllDrives", "true")

	var file File
	path := "/files/" + url.PathEscape(fileID) + "?" + q.Encode()
	if err := c.doJSON(ctx, http.MethodGet, path, token, nil, &file); err != nil {
		return nil, fmt.Errorf("get metadata: %w", err)
	}
	return &file, nil
}

// Rename changes the display name of a file.
func (c *Client) Rename(ctx context.Context, token, fileID, newName string) (*File, error) {
	body, err := json.Marshal(map[string]string{"name": newName})
	if err != nil {
		return nil, fmt.Errorf("encode rename body: %w", err)
	}

	q := url.Values{}
	q.Set("supportsAllDrives", "true")

	var file File
	path := "/files/" + url.PathEscape(fileID) + "?" + q.Encode()
	if err := c.doJSON(ctx, http.MethodPatch, path, token, bytes.NewReader(body), &file); err != nil {
		return nil, fmt.Errorf("rename file: %w", err)
	}
	return &file, nil
}

// Move reparents a file from one folder to another.
func (c *Client) Move(ctx context.Context, token, fileID, fromFolderID, toFolderID string) (*File, error) {
	q := url.Values{}
	q.Set("addParents", toFolderID)
	q.Set("removeParents", fromFolderID)
	q.Set("supportsAllDrives", "true")

	var file File
	path := "/files/" + url.PathEscape(fileID) + "?" + q.Encode()
	if err := c.doJSON(ctx, http.MethodPatch, path, token, strings.NewReader("{}"), &file); err != nil {
		return nil, fmt.Errorf("move file: %w", err)
	}
	return &file, nil
}

// Content fetches the raw file bytes, forwarding rangeHeader verbatim when
// set. The caller owns the returned response and must close its body; the
// upstream status (200 or 206) and range headers are preserved on it.
func (c *Client) Content(ctx context.Context, token, fileID, rangeHeader string) (*http.Response, error) {
	q := url.Values{}
	q.Set("alt", "media")
	q.Set("supportsAllDrives", "true")

	target := c.baseURL + "/files/" + url.PathEscape(fileID) + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build content request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch content: %w", err)
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, apiError("fetch content", resp)
	}
	return resp, nil
}

// DirectLink builds a token-embedding media URL for the file.
//
// This is the explicitly lower-trust alternative to the streaming proxy: the
// access token is visible to whoever holds the link, for as long as the
// token lives. It is only offered when enabled in configuration.
func (c *Client) DirectLink(fileID, token string) string {
	q := url.Values{}
	q.Set("alt", "media")
	q.Set("access_token", token)
	return c.baseURL + "/files/" + url.PathEscape(fileID) + "?" + q.Encode()
}

func (c *Client) doJSON(ctx context.Context, method, path, token string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("drive request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read drive response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return apiError(method+" "+path, resp)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode drive response: %w", err)
	}
	return nil
}

func apiError(op string, resp *http.Response) error {
	return fmt.Errorf("drive: %s failed: status=%d", op, resp.StatusCode)
}

// escapeQueryTerm escapes the quote characters Drive query strings treat
// specially.
func escapeQueryTerm(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
