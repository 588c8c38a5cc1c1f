package server

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// interviewRequest accepts both snake_case field names and the camelCase
// names sent by the legacy web client (sessionId, jobTitle, userAnswer).
type interviewRequest struct {
	SessionID string  `mapstructure:"session_id"`
	RoleTitle string  `mapstructure:"role_title"`
	Answer    *string `mapstructure:"candidate_answer"`

	// camelCase is set when the body used the web client spelling, which
	// expects the response in the same spelling.
	camelCase bool
}

var fieldAliases = map[string]string{
	"sessionid":        "session_id",
	"session_id":       "session_id",
	"roletitle":        "role_title",
	"role_title":       "role_title",
	"jobtitle":         "role_title",
	"job_title":        "role_title",
	"candidateanswer":  "candidate_answer",
	"candidate_answer": "candidate_answer",
	"useranswer":       "candidate_answer",
	"user_answer":      "candidate_answer",
}

var camelCaseKeys = map[string]bool{
	"sessionId":  true,
	"jobTitle":   true,
	"userAnswer": true,
}

func matchField(mapKey, fieldName string) bool {
	canonical, ok := fieldAliases[strings.ToLower(mapKey)]
	return ok && canonical == fieldName
}

func decodeInterviewRequest(body io.Reader) (*interviewRequest, error) {
	var raw map[string]any
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode request body: %w", err)
	}

	var req interviewRequest
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:    &req,
		MatchName: matchField,
	})
	if err != nil {
		return nil, fmt.Errorf("create request decoder: %w", err)
	}

	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode request fields: %w", err)
	}

	for key := range raw {
		if camelCaseKeys[key] {
			req.camelCase = true
			break
		}
	}

	// An empty answer means no new answer for this step.
	if req.Answer != nil && *req.Answer == "" {
		req.Answer = nil
	}

	return &req, nil
}
