package salesforce

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// apiError is one entry of the error array Salesforce returns in place of a
// resource body.
type apiError struct {
	Message   string `json:"message"`
	ErrorCode string `json:"errorCode"`
}

// decodeDescribe decodes a describe response for the named object. An error
// array or a body without an object name is reported as an error.
func decodeDescribe(r io.Reader, name string) (*SObjectDescription, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrapf(err, "sf: read describe %s", name)
	}
	body = bytes.TrimSpace(body)

	if len(body) > 0 && body[0] == '[' {
		var apiErrs []apiError
		if err := json.Unmarshal(body, &apiErrs); err != nil {
			return nil, eris.Wrapf(err, "sf: decode describe %s", name)
		}
		msgs := make([]string, 0, len(apiErrs))
		for _, e := range apiErrs {
			msgs = append(msgs, e.ErrorCode+": "+e.Message)
		}
		return nil, eris.Errorf("sf: describe %s: %s", name, strings.Join(msgs, "; "))
	}

	var desc SObjectDescription
	if err := json.Unmarshal(body, &desc); err != nil {
		return nil, eris.Wrapf(err, "sf: decode describe %s", name)
	}
	if desc.Name == "" {
		return nil, eris.Errorf("sf: describe %s: response has no object name", name)
	}
	return &desc, nil
}
