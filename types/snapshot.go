package types

import "time"

// Workspace is the audited workspace record.
type Workspace struct {
	GID  string `json:"gid"`
	Name string `json:"name"`
}

// User represents a workspace member.
type User struct {
	GID     string `json:"gid"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	IsAdmin bool   `json:"is_admin"`
}

// IsExternal reports whether the user is a guest (non-admin) member.
func (u User) IsExternal() bool {
	return !u.IsAdmin
}

// ProjectRef is a minimal reference to an owner or team.
type ProjectRef struct {
	GID  string `json:"gid"`
	Name string `json:"name,omitempty"`
}

// Project represents a workspace project.
//
// Timestamps are carried as raw strings: the API can omit them entirely,
// and policy decides how an unparseable date is treated.
type Project struct {
	GID          string      `json:"gid"`
	Name         string      `json:"name"`
	Archived     bool        `json:"archived"`
	CreatedAt    string      `json:"created_at,omitempty"`
	ModifiedAt   string      `json:"modified_at,omitempty"`
	Public       bool        `json:"public"`
	Notes        string      `json:"notes,omitempty"`
	Owner        *ProjectRef `json:"owner,omitempty"`
	Team         *ProjectRef `json:"team,omitempty"`
	PermalinkURL string      `json:"permalink_url,omitempty"`
}

// LastModified parses the project's modified_at timestamp.
// The second return value is false when the timestamp is absent or
// cannot be parsed.
func (p Project) LastModified() (time.Time, bool) {
	if p.ModifiedAt == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, p.ModifiedAt)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Snapshot is a point-in-time capture of a workspace: one workspace
// record plus the flat, denormalized user and project lists. Never
// mutated after construction; each audit run reads a single fixed
// snapshot.
type Snapshot struct {
	Workspace   Workspace `json:"workspace"`
	Users       []User    `json:"users"`
	Projects    []Project `json:"projects"`
	ExtractedAt time.Time `json:"extracted_at"`
}

// AdminCount returns the number of users with the admin flag set.
func (s *Snapshot) AdminCount() int {
	count := 0
	for _, u := range s.Users {
		if u.IsAdmin {
			count++
		}
	}
	return count
}

// ExternalUsers returns all non-admin users.
func (s *Snapshot) ExternalUsers() []User {
	var external []User
	for _, u := range s.Users {
		if u.IsExternal() {
			external = append(external, u)
		}
	}
	return external
}
