package api

import (
	"context"
	"net/url"
	"strings"

	wizard "github.com/goliatone/go-wizard"
)

// PathFunc resolves the endpoint for a submission.
type PathFunc func(wizard.Submission) (string, error)

// Reshape turns the accumulated form data into the request body.
type Reshape func(wizard.Submission) (any, error)

// StaticPath always posts to path.
func StaticPath(path string) PathFunc {
	return func(wizard.Submission) (string, error) { return path, nil }
}

// ParamPath expands {name} placeholders from top level form data, e.g.
// /jobs/{jobId}/applications. Missing values are a request error.
func ParamPath(pattern string) PathFunc {
	return func(sub wizard.Submission) (string, error) {
		var missing []string
		var b strings.Builder
		rest := pattern
		for {
			open := strings.IndexByte(rest, '{')
			if open < 0 {
				b.WriteString(rest)
				break
			}
			end := strings.IndexByte(rest[open:], '}')
			if end < 0 {
				b.WriteString(rest)
				break
			}
			b.WriteString(rest[:open])
			name := rest[open+1 : open+end]
			val, _ := sub.Data[name].(string)
			if strings.TrimSpace(val) == "" {
				missing = append(missing, name)
			}
			b.WriteString(url.PathEscape(strings.TrimSpace(val)))
			rest = rest[open+end+1:]
		}
		if len(missing) > 0 {
			return "", requestError("missing path parameter " + strings.Join(missing, ", "))
		}
		return b.String(), nil
	}
}

// PassThrough sends the form data unchanged.
func PassThrough(sub wizard.Submission) (any, error) {
	return sub.Data, nil
}

type submitter struct {
	client  *Client
	path    PathFunc
	reshape Reshape
}

// NewSubmitter adapts a POST endpoint to wizard.Submitter. A nil reshape
// sends the form data as is. Submissions are sent once; a failure is
// reported back to the controller, which leaves retrying to the user.
func NewSubmitter(client *Client, path PathFunc, reshape Reshape) wizard.Submitter {
	if reshape == nil {
		reshape = PassThrough
	}
	return &submitter{client: client, path: path, reshape: reshape}
}

func (s *submitter) Submit(ctx context.Context, sub wizard.Submission) error {
	if s.client == nil || s.path == nil {
		return requestError("submitter is not configured")
	}
	path, err := s.path(sub)
	if err != nil {
		return err
	}
	body, err := s.reshape(sub)
	if err != nil {
		return err
	}
	s.client.logger.Info("submitting %s entity=%s to %s", sub.WizardID, sub.EntityID, path)
	return s.client.postJSON(ctx, path, body, nil)
}
