package domain

import "strings"

// ResolutionPolicy decides which side survives a detected difference.
type ResolutionPolicy string

const (
	// PolicyRemote replaces the local store with the remote snapshot.
	PolicyRemote ResolutionPolicy = "remote"

	// PolicyLocal keeps the local store and pushes it to the remote.
	PolicyLocal ResolutionPolicy = "local"

	// PolicyMerge appends remote records whose text is not already present.
	PolicyMerge ResolutionPolicy = "merge"
)

// ParsePolicy converts user input to a ResolutionPolicy.
func ParsePolicy(s string) (ResolutionPolicy, error) {
	switch p := ResolutionPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyRemote, PolicyLocal, PolicyMerge:
		return p, nil
	default:
		return "", NewValidationErrorWithValue("policy", "must be one of: remote local merge", s)
	}
}

// Modification is a text present on both sides with differing categories.
type Modification struct {
	Text           string `json:"text"`
	LocalCategory  string `json:"localCategory"`
	RemoteCategory string `json:"remoteCategory"`
}

// DiffResult classifies the differences between local and remote snapshots.
type DiffResult struct {
	Modified   []Modification `json:"modified"`
	ServerOnly []Quote        `json:"serverOnly"`
	LocalOnly  []Quote        `json:"localOnly"`
}

// HasConflicts reports whether any difference was found.
func (d DiffResult) HasConflicts() bool {
	return len(d.Modified) > 0 || len(d.ServerOnly) > 0 || len(d.LocalOnly) > 0
}

// Diff compares local and remote keyed by exact Text.
// When a text occurs more than once on a side, its first occurrence is used.
func Diff(local, remote []Quote) DiffResult {
	localByText := indexByText(local)
	remoteByText := indexByText(remote)

	result := DiffResult{
		Modified:   make([]Modification, 0),
		ServerOnly: make([]Quote, 0),
		LocalOnly:  make([]Quote, 0),
	}

	seen := make(map[string]struct{}, len(remote))

	for _, r := range remote {
		if _, dup := seen[r.Text]; dup {
			continue
		}

		seen[r.Text] = struct{}{}

		l, ok := localByText[r.Text]
		if !ok {
			result.ServerOnly = append(result.ServerOnly, r)
			continue
		}

		if l.Category != r.Category {
			result.Modified = append(result.Modified, Modification{
				Text:           r.Text,
				LocalCategory:  l.Category,
				RemoteCategory: r.Category,
			})
		}
	}

	clear(seen)

	for _, l := range local {
		if _, dup := seen[l.Text]; dup {
			continue
		}

		seen[l.Text] = struct{}{}

		if _, ok := remoteByText[l.Text]; !ok {
			result.LocalOnly = append(result.LocalOnly, l)
		}
	}

	return result
}

// Merge returns local followed by every remote record whose text is not
// already present. Remote duplicates of an appended text are skipped too.
func Merge(local, remote []Quote) []Quote {
	out := CloneQuotes(local)

	present := make(map[string]struct{}, len(local)+len(remote))
	for _, q := range local {
		present[q.Text] = struct{}{}
	}

	for _, r := range remote {
		if _, ok := present[r.Text]; ok {
			continue
		}

		present[r.Text] = struct{}{}
		out = append(out, r)
	}

	return out
}

func indexByText(quotes []Quote) map[string]Quote {
	idx := make(map[string]Quote, len(quotes))

	for _, q := range quotes {
		if _, ok := idx[q.Text]; !ok {
			idx[q.Text] = q
		}
	}

	return idx
}
