// Package models defines the portfolio domain entities shared by the store,
// the synchronization layer, and the HTTP surface.
//
// Collection entities (Project, ContactMessage, Client) carry typed UUID IDs
// that marshal to SurrealDB RecordIDs over CBOR and to plain strings over
// JSON. Singleton entities (Profile, Resume, Analytics) live at fixed record
// addresses (profile:main, settings:resume, analytics:main) and carry no ID
// field of their own.
//
// Every entity that crosses the store boundary has a Validate method; the
// store rejects documents that fail it instead of trusting the remote shape.
package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// MessageStatus tracks the admin workflow state of a contact message.
// Transitions are monotonic in practice (new -> read -> replied) but the
// store does not reject out-of-order writes.
type MessageStatus string

const (
	StatusNew     MessageStatus = "new"
	StatusRead    MessageStatus = "read"
	StatusReplied MessageStatus = "replied"
)

func (s MessageStatus) IsValid() bool {
	switch s {
	case StatusNew, StatusRead, StatusReplied:
		return true
	}
	return false
}

// Project is a portfolio entry managed through the admin dashboard and read
// by the public site.
type Project struct {
	ID          ProjectID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	TechStack   []string  `json:"tech_stack,omitempty"`
	MediaURL    string    `json:"media_url,omitempty"`
	LinkURL     string    `json:"link_url,omitempty"`
	Featured    bool      `json:"featured"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Validate checks the invariants enforced at the store boundary. Duplicate
// tech-stack tags are allowed here; the dashboard prevents exact duplicates
// on input only.
func (p *Project) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("project: %w: title", ErrMissingField)
	}
	if strings.TrimSpace(p.Description) == "" {
		return fmt.Errorf("project: %w: description", ErrMissingField)
	}
	return nil
}

// ContactMessage is created by the public contact form and mutated only by
// admin actions.
type ContactMessage struct {
	ID        MessageID     `json:"id"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	Subject   string        `json:"subject"`
	Body      string        `json:"body"`
	Status    MessageStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func (m *ContactMessage) Validate() error {
	for field, v := range map[string]string{
		"name":    m.Name,
		"email":   m.Email,
		"subject": m.Subject,
		"body":    m.Body,
	} {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("message: %w: %s", ErrMissingField, field)
		}
	}
	if m.Status != "" && !m.Status.IsValid() {
		return fmt.Errorf("message: %w: status %q", ErrInvalidValue, m.Status)
	}
	return nil
}

// Profile is the singleton hero-profile document (profile:main).
type Profile struct {
	ImageURL  string    `json:"image_url,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Profile) Validate() error { return nil }

// Resume is the singleton resume pointer (settings:resume). Replacing the
// resume uploads a new file and swaps this pointer; the old storage object
// is deleted best-effort.
type Resume struct {
	FileURL     string    `json:"file_url,omitempty"`
	FileName    string    `json:"file_name,omitempty"`
	SizeBytes   int64     `json:"size_bytes,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

func (r *Resume) Validate() error {
	if r.FileURL != "" && strings.TrimSpace(r.FileName) == "" {
		return fmt.Errorf("resume: %w: file_name", ErrMissingField)
	}
	return nil
}

// Analytics is the singleton counter document (analytics:main). Counters are
// mutated through atomic increments; ProjectCount is re-derived from the
// projects collection after every project create or delete.
type Analytics struct {
	PageViews     int64            `json:"page_views"`
	MessageCount  int64            `json:"message_count"`
	ProjectCount  int64            `json:"project_count"`
	DownloadCount int64            `json:"download_count"`
	DailyViews    map[string]int64 `json:"daily_views,omitempty"`
	TopPages      map[string]int64 `json:"top_pages,omitempty"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

func (a *Analytics) Validate() error {
	if a.PageViews < 0 || a.MessageCount < 0 || a.ProjectCount < 0 || a.DownloadCount < 0 {
		return fmt.Errorf("analytics: %w: negative counter", ErrInvalidValue)
	}
	return nil
}

// DayKey is the bucket key format used by DailyViews.
const DayKey = "2006-01-02"

// DayCount is one day bucket of the rolling view series.
type DayCount struct {
	Day   string `json:"day"`
	Views int64  `json:"views"`
}

// PageCount is one entry of the ranked top-pages list.
type PageCount struct {
	Path  string `json:"path"`
	Views int64  `json:"views"`
}

// RecentDailyViews returns the day buckets inside the rolling window ending
// at now, oldest first. Days with no views are omitted.
func (a *Analytics) RecentDailyViews(now time.Time, days int) []DayCount {
	if days <= 0 || len(a.DailyViews) == 0 {
		return nil
	}
	cutoff := now.AddDate(0, 0, -days+1).Format(DayKey)
	out := make([]DayCount, 0, len(a.DailyViews))
	for day, views := range a.DailyViews {
		if day >= cutoff && day <= now.Format(DayKey) {
			out = append(out, DayCount{Day: day, Views: views})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}

// RankedTopPages returns up to limit pages ordered by view count descending,
// path ascending on ties.
func (a *Analytics) RankedTopPages(limit int) []PageCount {
	out := make([]PageCount, 0, len(a.TopPages))
	for path, views := range a.TopPages {
		out = append(out, PageCount{Path: path, Views: views})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Views != out[j].Views {
			return out[i].Views > out[j].Views
		}
		return out[i].Path < out[j].Path
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Client is a read-only engagement record backing the "happy clients"
// counter on the public site.
type Client struct {
	ID        ClientID  `json:"id"`
	Name      string    `json:"name"`
	Company   string    `json:"company,omitempty"`
	Project   string    `json:"project,omitempty"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (c *Client) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("client: %w: name", ErrMissingField)
	}
	return nil
}

// Admin is a dashboard credential record. PasswordHash is a bcrypt hash;
// plaintext secrets are never stored or compared.
type Admin struct {
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

func (a *Admin) Validate() error {
	if strings.TrimSpace(a.Email) == "" {
		return fmt.Errorf("admin: %w: email", ErrMissingField)
	}
	if a.PasswordHash == "" {
		return fmt.Errorf("admin: %w: password_hash", ErrMissingField)
	}
	return nil
}
