// Package domain contains the core data structures and domain logic for the application.
package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// MaxRepositories is the number of repositories a single request may track.
const MaxRepositories = 5

// Event is a single activity record from the GitHub events feed.
// Only Type and CreatedAt are read by the statistics pipeline; the other
// fields are kept so a fetched event is returned as the API delivered it.
type Event struct {
	ID        string          `json:"id,omitempty"`
	Type      string          `json:"type"`
	CreatedAt string          `json:"created_at"`
	Public    bool            `json:"public,omitempty"`
	Actor     *EventActor     `json:"actor,omitempty"`
	Repo      *EventRepo      `json:"repo,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// EventActor is the user that triggered an event.
type EventActor struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
}

// EventRepo is the repository an event belongs to.
type EventRepo struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// RepositoryRef identifies a tracked repository.
type RepositoryRef struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

// ErrInvalidRepository is returned for an owner or name that cannot be used
// as a single URL path segment or file name part.
var ErrInvalidRepository = errors.New("invalid repository")

// ParseRepositoryRef parses an "owner/name" string.
func ParseRepositoryRef(s string) (RepositoryRef, error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return RepositoryRef{}, fmt.Errorf("%w %q: expected owner/name", ErrInvalidRepository, s)
	}
	ref := RepositoryRef{Owner: owner, Name: name}
	if err := ref.Validate(); err != nil {
		return RepositoryRef{}, err
	}
	return ref, nil
}

// Validate rejects empty parts and parts containing a path separator or "..".
func (r RepositoryRef) Validate() error {
	for _, part := range []string{r.Owner, r.Name} {
		if part == "" || strings.ContainsAny(part, `/\`) || strings.Contains(part, "..") {
			return fmt.Errorf("%w %q: expected owner/name", ErrInvalidRepository, r.String())
		}
	}
	return nil
}

// CacheKey is the key statistics for the repository are stored under.
func (r RepositoryRef) CacheKey() string {
	return r.Owner + "_" + r.Name
}

func (r RepositoryRef) String() string {
	return r.Owner + "/" + r.Name
}

// EventGroup maps an event type to the creation timestamps of its events,
// in the order the events were delivered.
type EventGroup map[string][]string

// StatisticsRecord maps an event type to the average number of seconds
// between consecutive events of that type. It never holds a zero entry.
type StatisticsRecord map[string]float64

// Merge copies every entry of other into r, overwriting entries with the
// same event type.
func (r StatisticsRecord) Merge(other StatisticsRecord) {
	for eventType, avg := range other {
		r[eventType] = avg
	}
}

// NonZero returns a copy of r without zero entries.
func (r StatisticsRecord) NonZero() StatisticsRecord {
	out := make(StatisticsRecord, len(r))
	for eventType, avg := range r {
		if avg != 0 {
			out[eventType] = avg
		}
	}
	return out
}

// EventTypes returns the record's event types in ascending order.
func (r StatisticsRecord) EventTypes() []string {
	types := make([]string, 0, len(r))
	for eventType := range r {
		types = append(types, eventType)
	}
	sort.Strings(types)
	return types
}

// RepoStatistics holds the computed statistics for a single repository.
// It is the core domain entity of this application.
type RepoStatistics struct {
	Repository   RepositoryRef    `json:"repository"`
	AverageTimes StatisticsRecord `json:"average_times"`
	FromCache    bool             `json:"from_cache"`
}
