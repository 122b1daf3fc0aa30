// Package upstream resolves raw product payloads from the third-party catalog
// API by walking an ordered list of endpoint candidates.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrExhausted is returned when every endpoint candidate failed.
var ErrExhausted = errors.New("all upstream candidates failed")

// Resolver tries candidates sequentially until one yields parseable JSON.
// A candidate failure (bad status, non-JSON body, parse error, timeout) is
// absorbed and the next candidate is tried; no candidate is retried.
type Resolver struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	timeout    time.Duration
	candidates []Candidate
	log        *zap.Logger
}

// NewResolver builds a Resolver over the default candidate list. timeout
// bounds each individual candidate attempt.
func NewResolver(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *Resolver {
	return &Resolver{
		client:     &http.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		timeout:    timeout,
		candidates: DefaultCandidates(),
		log:        logger,
	}
}

// Resolve walks the candidate list for the given identifier and returns the
// first parseable payload along with the name of the candidate that produced
// it. When isID is false, id-only candidates are skipped.
func (r *Resolver) Resolve(ctx context.Context, identifier, market string, isID bool) (map[string]any, string, error) {
	for _, cand := range r.candidates {
		if cand.NeedsID && !isID {
			continue
		}
		payload, err := r.attempt(ctx, cand, identifier, market)
		if err != nil {
			r.log.Warn("upstream candidate failed",
				zap.String("candidate", cand.Name),
				zap.String("identifier", identifier),
				zap.Error(err))
			continue
		}
		if cand.Shape == ShapeSearch {
			best, ok := pickBestMatch(payload, identifier)
			if !ok {
				r.log.Warn("upstream candidate returned no results",
					zap.String("candidate", cand.Name),
					zap.String("identifier", identifier))
				continue
			}
			payload = best
		}
		r.log.Info("upstream resolved",
			zap.String("candidate", cand.Name),
			zap.String("identifier", identifier))
		return payload, cand.Name, nil
	}
	return nil, "", ErrExhausted
}

func (r *Resolver) attempt(ctx context.Context, cand Candidate, identifier, market string) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.expandURL(cand.Path, identifier, market), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	switch cand.Auth {
	case AuthAPIKey:
		req.Header.Set("x-api-key", r.apiKey)
	default:
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if !looksLikeJSON(body) {
		return nil, errors.New("body is not JSON")
	}

	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse body: %w", err)
	}

	switch p := parsed.(type) {
	case map[string]any:
		if ok, present := p["success"].(bool); present && !ok {
			return nil, errors.New("upstream reported success=false")
		}
		return p, nil
	case []any:
		// A bare array is a results collection.
		return map[string]any{"results": p}, nil
	default:
		return nil, errors.New("unexpected top-level JSON value")
	}
}

func (r *Resolver) expandURL(path, identifier, market string) string {
	path = strings.ReplaceAll(path, "{id}", url.PathEscape(identifier))
	path = strings.ReplaceAll(path, "{query}", url.QueryEscape(identifier))
	path = strings.ReplaceAll(path, "{market}", url.QueryEscape(market))
	return r.baseURL + path
}

// looksLikeJSON checks that the first non-whitespace byte opens a JSON value,
// catching HTML error pages before an expensive parse.
func looksLikeJSON(body []byte) bool {
	for _, b := range body {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '{', '[':
			return true
		default:
			return false
		}
	}
	return false
}

// pickBestMatch scores each search result by how many "/"-delimited segments
// of the requested identifier appear as substrings of the result's own
// identifier; ties keep encounter order, and zero matches still pick the
// first result so we never come back empty-handed when results exist.
func pickBestMatch(payload map[string]any, identifier string) (map[string]any, bool) {
	results := searchResults(payload)
	if len(results) == 0 {
		return nil, false
	}

	segments := make([]string, 0, 4)
	for _, seg := range strings.Split(identifier, "/") {
		if seg = strings.TrimSpace(seg); seg != "" {
			segments = append(segments, strings.ToLower(seg))
		}
	}

	best, bestScore := results[0], -1
	for _, res := range results {
		ident := strings.ToLower(resultIdentifier(res))
		score := 0
		for _, seg := range segments {
			if ident != "" && strings.Contains(ident, seg) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = res, score
		}
	}
	return best, true
}

func searchResults(payload map[string]any) []map[string]any {
	for _, key := range []string{"results", "products", "hits", "Products"} {
		list, ok := payload[key].([]any)
		if !ok {
			continue
		}
		out := make([]map[string]any, 0, len(list))
		for _, raw := range list {
			if m, ok := raw.(map[string]any); ok {
				out = append(out, m)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

func resultIdentifier(res map[string]any) string {
	for _, key := range []string{"sku", "styleId", "style_id", "urlKey", "url_key", "id"} {
		if s, ok := res[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
