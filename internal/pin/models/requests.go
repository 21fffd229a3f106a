package models

// GenerateRequest is the body of POST /pins. Quantity defaults to 1 when omitted.
type GenerateRequest struct {
	Quantity *int `json:"quantity"`
}

// DefaultQuantity mirrors the single-PIN default of the original input field.
const DefaultQuantity = 1

// QuantityOrDefault returns the requested quantity or DefaultQuantity.
func (r *GenerateRequest) QuantityOrDefault() int {
	if r == nil || r.Quantity == nil {
		return DefaultQuantity
	}
	return *r.Quantity
}

// GenerateResponse lists the served codes in allocation order.
type GenerateResponse struct {
	PINs  []Code `json:"pins"`
	Count int    `json:"count"`
}

// HealthResponse reports liveness and whether bootstrap has completed.
type HealthResponse struct {
	Status       string `json:"status"`
	Bootstrapped bool   `json:"bootstrapped"`
}
