package voilibgov

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const defaultProfileHost = "https://api.envoi.sh"

// ProfileDirectory looks up off-chain profile metadata for candidate names
// from the directory service. Lookups are best effort: a failure degrades
// candidates to their bare roster name and bio and never blocks a voting
// flow.
type ProfileDirectory struct {
	host   string
	client *http.Client
}

func NewProfileDirectory(host string) *ProfileDirectory {
	if host == "" {
		host = defaultProfileHost
	}
	return &ProfileDirectory{
		host:   host,
		client: http.DefaultClient,
	}
}

type profileBatchResponse struct {
	Results []*Profile `json:"results"`
}

// LookupProfiles fetches profiles for a batch of names in one request,
// returning them keyed by name. Names without a profile are absent from the
// map.
func (d *ProfileDirectory) LookupProfiles(ctx context.Context, names []string) (map[string]*Profile, error) {
	if len(names) == 0 {
		return map[string]*Profile{}, nil
	}

	endpoint := fmt.Sprintf("%s/api/address/%s", d.host,
		url.PathEscape(strings.Join(names, ",")))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, notice(ErrUnavailable, "profile request: %v", err)
	}

	res, err := d.client.Do(req)
	if err != nil {
		return nil, notice(ErrUnavailable, "profile lookup failed: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, notice(ErrUnavailable, "profile lookup returned status %d", res.StatusCode)
	}

	var batch profileBatchResponse
	if err := json.NewDecoder(res.Body).Decode(&batch); err != nil {
		return nil, notice(ErrDecode, "profile response unreadable: %v", err)
	}

	profiles := make(map[string]*Profile, len(batch.Results))
	for _, p := range batch.Results {
		profiles[p.Name] = p
	}
	return profiles, nil
}

// AttachProfiles annotates candidates with directory profiles in place. A
// lookup failure is logged and swallowed.
func (d *ProfileDirectory) AttachProfiles(ctx context.Context, candidates []*Candidate) {
	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		names = append(names, c.Name)
	}

	profiles, err := d.LookupProfiles(ctx, names)
	if err != nil {
		log.Warnf("candidate profiles unavailable: %v", err)
		return
	}
	for _, c := range candidates {
		if p, ok := profiles[c.Name]; ok {
			c.Profile = p
		}
	}
}
