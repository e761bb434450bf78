package dto

import "time"

type RateLimitInfo struct {
	Allowed   bool       `json:"allowed"`
	Remaining int        `json:"remaining"`
	ResetTime *time.Time `json:"reset_time,omitempty"`
}

type RateLimitConfigResponse struct {
	EndpointType string `json:"endpoint_type"`
	MaxRequests  int    `json:"max_requests"`
	Window       string `json:"window"`
	Description  string `json:"description"`
	IsActive     bool   `json:"is_active"`
}

type UpdateRateLimitConfigRequest struct {
	MaxRequests int    `json:"max_requests" validate:"gte=0"`
	Window      string `json:"window"`
	IsActive    *bool  `json:"is_active"`
}

func (r UpdateRateLimitConfigRequest) Validate() error {
	return validate.Struct(r)
}
