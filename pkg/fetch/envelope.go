package fetch

import (
	"encoding/json"
	"fmt"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

var (
	statusPath  = jp.MustParseString("$.status")
	messagePath = jp.MustParseString("$.message")
)

//nolint:tagliatelle // remote payload
type envelope struct {
	Status   string          `json:"status"`
	Data     json.RawMessage `json:"data"`
	Message  string          `json:"message"`
	Insights []string        `json:"ai_insights"`
}

// checkStatus inspects the status field of an enveloped response.
// A status "error" is reported as ErrService carrying the remote message.
func checkStatus(body []byte) error {
	obj, err := oj.Parse(body)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	status := firstString(statusPath.Get(obj))
	switch status {
	case "success":
		return nil
	case "error":
		msg := firstString(messagePath.Get(obj))
		if msg == "" {
			msg = "unknown error"
		}
		return &ServiceError{Message: msg}
	default:
		return fmt.Errorf("%w: unexpected status %q", ErrDecode, status)
	}
}

func firstString(res []any) string {
	if len(res) == 0 {
		return ""
	}
	if s, ok := res[0].(string); ok {
		return s
	}
	return ""
}

// decodeEnvelope checks the status and decodes the data part into target
func decodeEnvelope(body []byte, target any) (*envelope, error) {
	if err := checkStatus(body); err != nil {
		return nil, err
	}
	env := &envelope{}
	if err := json.Unmarshal(body, env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, ErrNoData
	}
	if err := json.Unmarshal(env.Data, target); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return env, nil
}
