// Package settings holds the display settings of the org chart and the
// stores that persist them.
//
// Settings are a flat document. Stored values are merged over [Defaults], so
// a document written by an older version keeps working when fields are added.
// Node colors and export columns are merged per key.
//
// # Stores
//
// Two backends implement [Store]:
//
//	store := settings.NewFileStore("data/settings.json")
//	store, err := settings.NewMongoStore(ctx, settings.MongoConfig{URI: uri})
//
// The top user email can be pinned by the environment. Apply the override
// after loading:
//
//	s = settings.ApplyEnvironment(s, os.Getenv(settings.EnvTopUserEmail))
package settings

import (
	"fmt"
	"maps"
	"regexp"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/matzehuels/orgchart/pkg/core/chart/collapse"
	"github.com/matzehuels/orgchart/pkg/core/render/tree/compact"
	"github.com/matzehuels/orgchart/pkg/core/render/tree/styles"
	orgerr "github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/org"
)

// EnvTopUserEmail names the environment variable that pins the top user.
const EnvTopUserEmail = "TOP_LEVEL_USER_EMAIL"

// Export column visibility values.
const (
	ColumnShow  = "show"
	ColumnHide  = "hide"
	ColumnAdmin = "admin"
)

// ExportColumns lists the spreadsheet columns in sheet order.
var ExportColumns = []string{
	"name", "title", "department", "email", "phone", "businessPhone",
	"hireDate", "country", "state", "city", "office", "manager",
}

// Settings is the display settings document.
type Settings struct {
	ChartTitle     string            `json:"chartTitle"`
	HeaderColor    string            `json:"headerColor"`
	LogoPath       string            `json:"logoPath"`
	FaviconPath    string            `json:"faviconPath"`
	NodeColors     map[string]string `json:"nodeColors"`
	UpdateTime     string            `json:"updateTime"`
	UpdateTimezone string            `json:"updateTimezone"`
	CollapseLevel  string            `json:"collapseLevel"`

	AutoUpdateEnabled     bool `json:"autoUpdateEnabled"`
	SearchAutoExpand      bool `json:"searchAutoExpand"`
	SearchHighlight       bool `json:"searchHighlight"`
	ShowNames             bool `json:"showNames"`
	ShowDepartments       bool `json:"showDepartments"`
	ShowJobTitles         bool `json:"showJobTitles"`
	ShowEmployeeCount     bool `json:"showEmployeeCount"`
	ShowProfileImages     bool `json:"showProfileImages"`
	HighlightNewEmployees bool `json:"highlightNewEmployees"`

	PrintOrientation  string            `json:"printOrientation"`
	PrintSize         string            `json:"printSize"`
	ExportXlsxColumns map[string]string `json:"exportXlsxColumns"`

	TopUserEmail      string `json:"topUserEmail"`
	NewEmployeeMonths int    `json:"newEmployeeMonths"`

	MultiLineChildrenEnabled     bool    `json:"multiLineChildrenEnabled"`
	MultiLineChildrenThreshold   int     `json:"multiLineChildrenThreshold"`
	MultiLineCompactGap          float64 `json:"multiLineCompactGap"`
	CompactSiblingSpacingEnabled bool    `json:"compactSiblingSpacingEnabled"`

	HideDisabledUsers   bool   `json:"hideDisabledUsers"`
	HideGuestUsers      bool   `json:"hideGuestUsers"`
	HideNoTitle         bool   `json:"hideNoTitle"`
	HideConsultantGroup bool   `json:"hideConsultantGroup"` // legacy; see IgnoredDepartments
	IgnoredEmployees    string `json:"ignoredEmployees"`
	IgnoredDepartments  string `json:"ignoredDepartments"`
	IgnoredTitles       string `json:"ignoredTitles"`
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		ChartTitle:     "DB Auto Org Chart",
		HeaderColor:    "#0078d4",
		LogoPath:       "/static/icon.png",
		FaviconPath:    "/favicon.ico",
		NodeColors:     maps.Clone(styles.DefaultNodeColors),
		UpdateTime:     "20:00",
		UpdateTimezone: "UTC",
		CollapseLevel:  collapse.DefaultLevel,

		AutoUpdateEnabled:     true,
		SearchAutoExpand:      true,
		SearchHighlight:       true,
		ShowNames:             true,
		ShowDepartments:       true,
		ShowJobTitles:         true,
		ShowEmployeeCount:     true,
		ShowProfileImages:     true,
		HighlightNewEmployees: true,

		PrintOrientation: "landscape",
		PrintSize:        "a4",
		ExportXlsxColumns: map[string]string{
			"name":          ColumnShow,
			"title":         ColumnShow,
			"department":    ColumnShow,
			"email":         ColumnShow,
			"phone":         ColumnShow,
			"businessPhone": ColumnShow,
			"hireDate":      ColumnAdmin,
			"country":       ColumnShow,
			"state":         ColumnShow,
			"city":          ColumnShow,
			"office":        ColumnShow,
			"manager":       ColumnShow,
		},

		NewEmployeeMonths: org.DefaultNewEmployeeMonths,

		MultiLineChildrenEnabled:   true,
		MultiLineChildrenThreshold: compact.DefaultThreshold,
		MultiLineCompactGap:        compact.DefaultGap,

		HideDisabledUsers:   true,
		HideGuestUsers:      true,
		HideNoTitle:         true,
		HideConsultantGroup: true,
		IgnoredDepartments:  "Consultant Group",
	}
}

// Clone returns a deep copy of s.
func (s Settings) Clone() Settings {
	s.NodeColors = maps.Clone(s.NodeColors)
	s.ExportXlsxColumns = maps.Clone(s.ExportXlsxColumns)
	return s
}

// Merge decodes a JSON patch over base. Fields absent from the patch keep
// their base value; nodeColors and exportXlsxColumns are merged per key.
// base is not modified.
func Merge(base Settings, patch []byte) (Settings, error) {
	out := base.Clone()
	out.NodeColors = nil
	out.ExportXlsxColumns = nil
	if err := json.Unmarshal(patch, &out); err != nil {
		return base.Clone(), orgerr.Wrap(orgerr.ErrCodeInvalidSettings, err, "decode settings")
	}
	out.NodeColors = mergeKeys(base.NodeColors, out.NodeColors)
	out.ExportXlsxColumns = mergeKeys(base.ExportXlsxColumns, out.ExportXlsxColumns)
	return out, nil
}

// Decode merges a stored document over [Defaults].
func Decode(data []byte) (Settings, error) {
	return Merge(Defaults(), data)
}

func mergeKeys(base, over map[string]string) map[string]string {
	out := maps.Clone(base)
	if out == nil {
		out = make(map[string]string, len(over))
	}
	maps.Copy(out, over)
	return out
}

// ApplyEnvironment returns s with topUserEmail replaced by email when email
// is not blank.
func ApplyEnvironment(s Settings, email string) Settings {
	if e := strings.TrimSpace(email); e != "" {
		s.TopUserEmail = e
	}
	return s
}

// TopUser returns the email that pins the chart root. A session override
// wins even when empty, which requests auto-detection. Otherwise a non-blank
// env value wins over the stored setting.
func (s Settings) TopUser(override *string, env string) string {
	if override != nil {
		return strings.TrimSpace(*override)
	}
	return strings.TrimSpace(ApplyEnvironment(s, env).TopUserEmail)
}

var updateTimeRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// Validate checks the fields that drive layout and scheduling.
func (s Settings) Validate() error {
	if err := orgerr.ValidateCollapseLevel(s.CollapseLevel); err != nil {
		return err
	}
	if s.HeaderColor != "" {
		if err := orgerr.ValidateColor(s.HeaderColor); err != nil {
			return err
		}
	}
	for key, c := range s.NodeColors {
		if c == "" {
			continue
		}
		if err := orgerr.ValidateColor(c); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	if s.UpdateTime != "" && !updateTimeRe.MatchString(s.UpdateTime) {
		return orgerr.New(orgerr.ErrCodeInvalidSettings, "invalid update time %q (expected HH:MM)", s.UpdateTime)
	}
	if s.MultiLineChildrenThreshold < 0 {
		return orgerr.New(orgerr.ErrCodeInvalidSettings, "multiLineChildrenThreshold must not be negative")
	}
	if s.MultiLineCompactGap < 0 {
		return orgerr.New(orgerr.ErrCodeInvalidSettings, "multiLineCompactGap must not be negative")
	}
	if s.NewEmployeeMonths < 0 {
		return orgerr.New(orgerr.ErrCodeInvalidSettings, "newEmployeeMonths must not be negative")
	}
	for col, v := range s.ExportXlsxColumns {
		t := strings.TrimSpace(v)
		if t != "" && columnMode(v) == ColumnShow && !strings.EqualFold(t, ColumnShow) {
			return orgerr.New(orgerr.ErrCodeInvalidSettings, "invalid visibility %q for column %s", v, col)
		}
	}
	return orgerr.ValidateEmail(s.TopUserEmail)
}

// Filters returns the record filters configured by s.
func (s Settings) Filters() org.Filters {
	return org.Filters{
		HideDisabled:       s.HideDisabledUsers,
		HideGuests:         s.HideGuestUsers,
		HideNoTitle:        s.HideNoTitle,
		IgnoredTitles:      org.ParseFilterValues(s.IgnoredTitles),
		IgnoredDepartments: org.ParseFilterValues(s.IgnoredDepartments),
		IgnoredEmployees:   org.ParseFilterValues(s.IgnoredEmployees),
	}
}

// CompactOptions returns the compaction pass options, with enabled resolved
// by the caller from the server value and the local preference.
func (s Settings) CompactOptions(enabled bool) compact.Options {
	o := compact.DefaultOptions()
	o.Enabled = enabled
	o.Threshold = s.MultiLineChildrenThreshold
	if s.MultiLineCompactGap > 0 {
		o.Gap = s.MultiLineCompactGap
	}
	return o
}

// StyleOptions returns the node styling options, with avatars resolved by
// the caller from the server value and the local preference.
func (s Settings) StyleOptions(avatars bool) styles.Options {
	return styles.Options{
		Palette:         styles.Palette(maps.Clone(s.NodeColors)),
		Avatars:         avatars,
		Departments:     s.ShowDepartments,
		EmployeeCount:   s.ShowEmployeeCount,
		HighlightNew:    s.HighlightNewEmployees,
		SearchHighlight: s.SearchHighlight,
	}
}

// InitialCollapseLevel returns the collapse level applied on load, falling
// back to the default for malformed values.
func (s Settings) InitialCollapseLevel() string {
	if orgerr.ValidateCollapseLevel(s.CollapseLevel) != nil {
		return Defaults().CollapseLevel
	}
	return s.CollapseLevel
}

// VisibleColumns returns the export columns shown to a caller, in sheet
// order. Admin columns are shown to admins only. When nothing is visible the
// name column is returned alone.
func (s Settings) VisibleColumns(admin bool) []string {
	var cols []string
	for _, c := range ExportColumns {
		switch columnMode(s.ExportXlsxColumns[c]) {
		case ColumnHide:
		case ColumnAdmin:
			if admin {
				cols = append(cols, c)
			}
		default:
			cols = append(cols, c)
		}
	}
	if len(cols) == 0 {
		return []string{"name"}
	}
	return cols
}

// columnMode normalizes stored visibility values. "show_admin_only" and
// "admin-only" are older spellings of admin.
func columnMode(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	switch strings.NewReplacer("_", "", "-", "").Replace(v) {
	case "admin", "adminonly", "showadminonly":
		return ColumnAdmin
	case "hide":
		return ColumnHide
	}
	return ColumnShow
}
