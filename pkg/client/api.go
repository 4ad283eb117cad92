package client

import (
	"context"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	orgerr "github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/org"
	"github.com/matzehuels/orgchart/pkg/settings"
)

// Employees fetches the hierarchy.
func (c *Client) Employees(ctx context.Context) (*org.Employee, error) {
	resp, err := c.do(ctx, request{method: http.MethodGet, path: "/api/employees", channel: ChannelTree})
	if err != nil {
		return nil, err
	}
	var root org.Employee
	if err := resp.decode(&root); err != nil {
		return nil, err
	}
	if root.ID == "" {
		return nil, orgerr.New(orgerr.ErrCodeNoRoot, "server returned an empty hierarchy")
	}
	return &root, nil
}

// Employee fetches one employee with their reports.
func (c *Client) Employee(ctx context.Context, id string) (*org.Employee, error) {
	if err := orgerr.ValidateEmployeeID(id); err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, request{method: http.MethodGet, path: "/api/employee/" + url.PathEscape(id)})
	if err != nil {
		return nil, err
	}
	var e org.Employee
	if err := resp.decode(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Search returns the employees matching q. Queries shorter than
// [org.MinSearchQuery] return no results without a request.
func (c *Client) Search(ctx context.Context, q string) ([]org.Summary, error) {
	q = strings.TrimSpace(q)
	if len([]rune(q)) < org.MinSearchQuery {
		return []org.Summary{}, nil
	}
	resp, err := c.do(ctx, request{
		method:  http.MethodGet,
		path:    "/api/search",
		query:   url.Values{"q": {q}},
		channel: ChannelSearch,
	})
	if err != nil {
		return nil, err
	}
	var out []org.Summary
	if err := resp.decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// Settings fetches the display settings, merged over the defaults.
func (c *Client) Settings(ctx context.Context) (settings.Settings, error) {
	resp, err := c.do(ctx, request{method: http.MethodGet, path: "/api/settings", channel: ChannelSettings})
	if err != nil {
		return settings.Defaults(), err
	}
	return settings.Decode(resp.body)
}

// UpdateSettings merges patch into the stored settings. patch is any value
// that encodes to a settings JSON object.
func (c *Client) UpdateSettings(ctx context.Context, patch any) error {
	_, err := c.do(ctx, request{method: http.MethodPost, path: "/api/settings", body: patch, auth: true})
	return err
}

// SetMultilineEnabled switches compact teams for everyone.
func (c *Client) SetMultilineEnabled(ctx context.Context, enabled bool) error {
	_, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/set-multiline-enabled",
		body:   map[string]bool{"multiLineChildrenEnabled": enabled},
		auth:   true,
	})
	return err
}

// SetTopUser stores this session's root override. An empty email asks for
// auto-detection. It returns the email the server stored.
func (c *Client) SetTopUser(ctx context.Context, email string) (string, error) {
	resp, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/set-top-user",
		body:   map[string]string{"topUserEmail": email},
	})
	if err != nil {
		return "", err
	}
	var out struct {
		TopUserEmail string `json:"topUserEmail"`
	}
	if err := resp.decode(&out); err != nil {
		return "", err
	}
	return out.TopUserEmail, nil
}

// ResetSettings restores the default settings.
func (c *Client) ResetSettings(ctx context.Context) error {
	_, err := c.do(ctx, request{method: http.MethodPost, path: "/api/reset-all-settings", auth: true})
	return err
}

// UpdateNow asks the server to reload its data source.
func (c *Client) UpdateNow(ctx context.Context) error {
	_, err := c.do(ctx, request{method: http.MethodPost, path: "/api/update-now", auth: true})
	return err
}

// AuthCheck reports whether the session is logged in.
func (c *Client) AuthCheck(ctx context.Context) (bool, error) {
	_, err := c.do(ctx, request{method: http.MethodGet, path: "/api/auth-check"})
	switch {
	case err == nil:
		return true, nil
	case orgerr.Is(err, orgerr.ErrCodeUnauthorized):
		return false, nil
	}
	return false, err
}

// Login authenticates the session as admin.
func (c *Client) Login(ctx context.Context, password string) error {
	_, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/login",
		body:   map[string]string{"password": password},
	})
	return err
}

// Logout ends the admin session.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, request{method: http.MethodPost, path: "/api/logout"})
	return err
}

// MetadataOptions are the ignore-list suggestions.
type MetadataOptions struct {
	JobTitles   []string `json:"jobTitles"`
	Departments []string `json:"departments"`
	Employees   []string `json:"employees"`
}

// MetadataOptions fetches the ignore-list suggestions. Admin only.
func (c *Client) MetadataOptions(ctx context.Context) (*MetadataOptions, error) {
	resp, err := c.do(ctx, request{method: http.MethodGet, path: "/api/metadata/options", auth: true})
	if err != nil {
		return nil, err
	}
	var out MetadataOptions
	if err := resp.decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExportQuery selects what a server-side export draws.
type ExportQuery struct {
	VizType     string
	Orientation string
	Collapse    string
	FullChart   bool
	Compact     *bool
	Avatars     *bool
	Scale       float64
	Hidden      []string
}

func (q ExportQuery) values() url.Values {
	v := url.Values{}
	set := func(k, s string) {
		if s != "" {
			v.Set(k, s)
		}
	}
	set("viz", q.VizType)
	set("orientation", q.Orientation)
	set("collapse", q.Collapse)
	if q.FullChart {
		v.Set("full", "true")
	}
	if q.Compact != nil {
		v.Set("compact", strconv.FormatBool(*q.Compact))
	}
	if q.Avatars != nil {
		v.Set("avatars", strconv.FormatBool(*q.Avatars))
	}
	if q.Scale > 0 {
		v.Set("scale", strconv.FormatFloat(q.Scale, 'f', -1, 64))
	}
	set("hidden", strings.Join(q.Hidden, ","))
	return v
}

// File is a downloaded export.
type File struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Export renders the chart on the server in format (svg, png, pdf, json or
// dot).
func (c *Client) Export(ctx context.Context, format string, q ExportQuery) (*File, error) {
	resp, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/api/export/" + url.PathEscape(format),
		query:  q.values(),
	})
	if err != nil {
		return nil, err
	}
	return fileFrom(resp), nil
}

// ExportXLSX downloads the spreadsheet.
func (c *Client) ExportXLSX(ctx context.Context) (*File, error) {
	resp, err := c.do(ctx, request{method: http.MethodGet, path: "/api/export-xlsx"})
	if err != nil {
		return nil, err
	}
	return fileFrom(resp), nil
}

func fileFrom(resp *response) *File {
	f := &File{ContentType: resp.header.Get("Content-Type"), Data: resp.body}
	if _, params, err := mime.ParseMediaType(resp.header.Get("Content-Disposition")); err == nil {
		f.Filename = params["filename"]
	}
	return f
}

// rawJSON lets callers pass a pre-encoded settings patch.
type rawJSON []byte

func (r rawJSON) MarshalJSON() ([]byte, error) { return r, nil }

// UpdateSettingsJSON merges a raw JSON object into the stored settings.
func (c *Client) UpdateSettingsJSON(ctx context.Context, patch []byte) error {
	if !json.Valid(patch) {
		return orgerr.New(orgerr.ErrCodeInvalidSettings, "settings patch is not valid JSON")
	}
	return c.UpdateSettings(ctx, rawJSON(patch))
}
