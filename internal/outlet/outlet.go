package outlet

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/url"
	"sort"
	"strconv"
)

// Target is the connection target of one outlet database.
type Target struct {
	OutletCode string `json:"outlet_code"`
	Host       string `json:"db_host"`
	Port       int    `json:"db_port"`
	Database   string `json:"db_name"`
	User       string `json:"db_user"`
	Password   string `json:"db_password"`
	SSLMode    string `json:"db_sslmode,omitempty"`
}

// ConnectionString renders the target as a PostgreSQL URL. Non-empty user or
// password overrides replace the per-outlet credentials.
func (t Target) ConnectionString(user, password string) string {
	if user == "" {
		user = t.User
	}
	if password == "" {
		password = t.Password
	}

	sslMode := t.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, password),
		Host:     net.JoinHostPort(t.Host, strconv.Itoa(t.Port)),
		Path:     "/" + t.Database,
		RawQuery: url.Values{"sslmode": []string{sslMode}}.Encode(),
	}
	return u.String()
}

// Directory maps outlet codes to their database targets.
type Directory struct {
	targets map[string]Target
}

// NewDirectory builds a directory, rejecting duplicate or incomplete entries.
func NewDirectory(targets []Target) (*Directory, error) {
	d := &Directory{targets: make(map[string]Target, len(targets))}
	for i, t := range targets {
		if t.OutletCode == "" {
			return nil, fmt.Errorf("server %d: outlet code is required", i)
		}
		if t.Host == "" {
			return nil, fmt.Errorf("outlet %s: database host is required", t.OutletCode)
		}
		if t.Database == "" {
			return nil, fmt.Errorf("outlet %s: database name is required", t.OutletCode)
		}
		if t.Port == 0 {
			t.Port = 5432
		}
		if _, dup := d.targets[t.OutletCode]; dup {
			return nil, fmt.Errorf("outlet %s is configured twice", t.OutletCode)
		}
		d.targets[t.OutletCode] = t
	}
	return d, nil
}

// ParseDirectory decodes a {"servers": [...]} document.
func ParseDirectory(r io.Reader) (*Directory, error) {
	var doc struct {
		Servers []Target `json:"servers"`
	}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode outlet directory: %w", err)
	}
	return NewDirectory(doc.Servers)
}

// Lookup returns the target of an outlet.
func (d *Directory) Lookup(code string) (Target, bool) {
	t, ok := d.targets[code]
	return t, ok
}

// Codes returns the configured outlet codes in sorted order.
func (d *Directory) Codes() []string {
	codes := make([]string, 0, len(d.targets))
	for code := range d.targets {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Len returns the number of configured outlets.
func (d *Directory) Len() int {
	return len(d.targets)
}

// Loader defines the interface for loading the outlet directory document.
type Loader interface {
	// Load reads the directory document at path.
	Load(ctx context.Context, path string) (*Directory, error)
}
