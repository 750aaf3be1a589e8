package audit

import "strings"

// ActionResource holds action and resource derived from a request route.
type ActionResource struct {
	Action   string
	Resource string
}

// ParseRoute returns action and resource for an API route pattern
// (e.g. /api/polls/vote/{pollId}). Resource is the API group
// ("auth", "organisations", "polls"); action is a verb derived from the
// operation segment (e.g. create-poll -> create, vote -> vote).
func ParseRoute(pattern string) ActionResource {
	p := strings.TrimPrefix(pattern, "/api/")
	if p == pattern {
		return ActionResource{Action: "unknown", Resource: "unknown"}
	}
	parts := strings.Split(p, "/")
	if len(parts) == 0 || parts[0] == "" {
		return ActionResource{Action: "unknown", Resource: "unknown"}
	}
	resource := parts[0]
	op := ""
	for _, seg := range parts[1:] {
		if seg == "" || strings.HasPrefix(seg, "{") {
			continue
		}
		op = seg
		break
	}
	return ActionResource{Action: opToAction(op), Resource: resource}
}

func opToAction(op string) string {
	switch {
	case op == "":
		return "unknown"
	case strings.HasPrefix(op, "create"):
		return "create"
	case strings.HasPrefix(op, "register"), op == "init-admin":
		return "register"
	case strings.HasPrefix(op, "generate"):
		return "rotate"
	case strings.HasPrefix(op, "join"):
		return "join"
	case strings.HasPrefix(op, "get"):
		return "get"
	default:
		return strings.ToLower(op)
	}
}
