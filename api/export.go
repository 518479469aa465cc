package api

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// Export is a downloaded blob ready to be written to disk.
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
}

var exportFormat = regexp.MustCompile(`^[a-z0-9]{1,10}$`)

// ExportFilename derives the download name from the format and the request
// time: export_2024-05-01T10-20-30-123Z.csv
func ExportFilename(format string, at time.Time) string {
	stamp := at.UTC().Format("2006-01-02T15:04:05.000Z")
	stamp = strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
	return "export_" + stamp + "." + format
}

// Export fetches GET /export?format= as a blob.
func (c *Client) Export(ctx context.Context, format string) (*Export, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if !exportFormat.MatchString(format) {
		return nil, requestError("invalid export format " + format)
	}
	requested := c.now()
	resp, err := c.getWithRetry(ctx, "/export", url.Values{"format": {format}}, "*/*")
	if err != nil {
		return nil, err
	}
	ct := resp.contentType
	if ct == "" {
		ct = http.DetectContentType(resp.body)
	}
	return &Export{
		Filename:    ExportFilename(format, requested),
		ContentType: ct,
		Data:        resp.body,
	}, nil
}
