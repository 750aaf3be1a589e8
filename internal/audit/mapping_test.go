package audit

import "testing"

func TestParseRoute(t *testing.T) {
	cases := []struct {
		pattern  string
		action   string
		resource string
	}{
		{"/api/auth/init-admin", "register", "auth"},
		{"/api/auth/register-manager", "register", "auth"},
		{"/api/auth/login", "login", "auth"},
		{"/api/organisations/create-organisation", "create", "organisations"},
		{"/api/organisations/generate-join-code/{id}", "rotate", "organisations"},
		{"/api/organisations/join-organisation", "join", "organisations"},
		{"/api/polls/create-poll", "create", "polls"},
		{"/api/polls/vote/{pollId}", "vote", "polls"},
		{"/api/polls/close/{pollId}", "close", "polls"},
		{"/api/polls/open/{pollId}", "open", "polls"},
		{"/api/polls/get-poll-results/{pollId}", "get", "polls"},
		{"/reset", "unknown", "unknown"},
	}
	for _, tc := range cases {
		ar := ParseRoute(tc.pattern)
		if ar.Action != tc.action || ar.Resource != tc.resource {
			t.Errorf("ParseRoute(%q) = %+v, want {%s %s}", tc.pattern, ar, tc.action, tc.resource)
		}
	}
}
