package runner

import (
	"github.com/abdul-hamid-achik/classifyprobe/packages/core/suite"
	"github.com/abdul-hamid-achik/classifyprobe/packages/http"
)

type classifyRequest struct {
	BusinessName string            `json:"businessName"`
	Images       map[string]string `json:"images,omitempty"`
	Image        string            `json:"image,omitempty"`
	Metadata     *requestMetadata  `json:"metadata,omitempty"`
}

type requestMetadata struct {
	RequestID     string `json:"requestId,omitempty"`
	ClientVersion string `json:"clientVersion,omitempty"`
}

// buildPayload assembles the classify body. {{index}} and {{name}} in the
// request id resolve to the case position (1-based) and name.
func (r *Runner) buildPayload(index int, tc *suite.TestCase) classifyRequest {
	body := classifyRequest{BusinessName: tc.BusinessName}

	if tc.HasImage() {
		switch tc.EffectiveLayout() {
		case suite.LayoutFlat:
			body.Image = tc.Image
		default:
			body.Images = map[string]string{tc.Slot(): tc.Image}
		}
	}

	requestID := tc.RequestID
	if requestID != "" {
		res := r.resolver.Clone()
		res.SetVariable("index", index)
		res.SetVariable("name", tc.Name)
		requestID = res.Resolve(requestID)
	}
	clientVersion := tc.ClientVersion
	if clientVersion == "" {
		clientVersion = r.config.ClientVersion
	}
	if requestID != "" || clientVersion != "" {
		body.Metadata = &requestMetadata{RequestID: requestID, ClientVersion: clientVersion}
	}

	return body
}

// buildRequest returns the POST request and the resolved request id.
func (r *Runner) buildRequest(index int, tc *suite.TestCase) (*http.Request, string, error) {
	body := r.buildPayload(index, tc)
	requestID := ""
	if body.Metadata != nil {
		requestID = body.Metadata.RequestID
	}

	req, err := http.NewJSONRequest(r.config.Endpoint.ClassifyURL(), body)
	if err != nil {
		return nil, requestID, err
	}

	req.SetHeader("User-Agent", r.config.UserAgent)
	for k, v := range r.config.Headers {
		req.SetHeader(k, v)
	}
	req.SetHeader("Content-Type", "application/json")
	req.SetAuth(r.config.Endpoint.Auth)

	if tc.HasImage() {
		req.SetTimeout(r.config.ImageTimeout)
	} else {
		req.SetTimeout(r.config.Timeout)
	}
	return req, requestID, nil
}
