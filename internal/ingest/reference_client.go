package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Reference file columns.
const (
	ColRefArtifactName = "Artifact Name"
	ColRefArtifactID   = "Artifact ID"
	ColRefArtifactLink = "Artifact Link"
)

// ArtifactRef is one row of the artifacts reference file, used to
// enrich artifacts created during an import with their published
// display code and link.
type ArtifactRef struct {
	ArtifactID string
	Link       string
}

// ReferenceClient fetches the reference CSVs (seed profile, artifacts
// reference, scoring legend) over HTTP. Fetches are best-effort for the
// callers: a failure is logged and the caller falls back or skips.
type ReferenceClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

func NewReferenceClient(logger *zap.Logger) *ReferenceClient {
	client := resty.New().
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second)
	return &ReferenceClient{httpClient: client, logger: logger}
}

// FetchCSV downloads a reference file and returns its raw bytes.
func (c *ReferenceClient) FetchCSV(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.httpClient.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode())
	}
	return resp.Body(), nil
}

// FetchArtifactRefs downloads and parses the artifacts reference file
// into a name-keyed map.
func (c *ReferenceClient) FetchArtifactRefs(ctx context.Context, url string) (map[string]ArtifactRef, error) {
	data, err := c.FetchCSV(ctx, url)
	if err != nil {
		return nil, err
	}
	result, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse artifact reference file: %w", err)
	}
	for _, w := range result.Warnings {
		c.logger.Warn("artifact reference file row skipped",
			zap.Int("row", w.Row),
			zap.String("message", w.Message),
		)
	}

	refs := make(map[string]ArtifactRef, len(result.Records))
	for _, rec := range result.Records {
		name := rec.Str(ColRefArtifactName)
		if name == "" {
			continue
		}
		refs[name] = ArtifactRef{
			ArtifactID: rec.Str(ColRefArtifactID),
			Link:       rec.Str(ColRefArtifactLink),
		}
	}
	return refs, nil
}
