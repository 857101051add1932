package orchestrator

import (
	"strings"
	"testing"
)

func TestLoadRunRequestJSONAcceptsValidRequest(t *testing.T) {
	body := `{"repo_url": "https://github.com/acme/widgets", "team_name": "acme", "leader_name": "ada", "create_pr": true}`
	req, err := LoadRunRequestJSON(strings.NewReader(body))
	if err != nil {
		t.Fatalf("LoadRunRequestJSON: %v", err)
	}
	if req.RepoURL != "https://github.com/acme/widgets" || !req.CreatePR {
		t.Errorf("unexpected request: %+v", req)
	}
}

func TestLoadRunRequestJSONRejectsMissingFields(t *testing.T) {
	body := `{"team_name": "acme"}`
	if _, err := LoadRunRequestJSON(strings.NewReader(body)); err == nil {
		t.Error("expected an error for a request missing repo_url and leader_name")
	}
}

func TestLoadRunRequestJSONRejectsMalformedJSON(t *testing.T) {
	if _, err := LoadRunRequestJSON(strings.NewReader("{not json")); err == nil {
		t.Error("expected an error for malformed JSON")
	}
}
