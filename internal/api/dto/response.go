package dto

// Envelope statuses.
const (
	StatusSuccess = "success"
	StatusFail    = "fail"
	StatusError   = "error"
)

// Envelope is the body shape shared by every JSON response of the API.
// Field order is part of the wire contract.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// Success wraps data in a success envelope.
func Success(message string, data any) Envelope {
	return Envelope{Status: StatusSuccess, Message: message, Data: data}
}

// Fail builds a client-error envelope with null data.
func Fail(message string) Envelope {
	return Envelope{Status: StatusFail, Message: message}
}

// Error builds a server-error envelope with null data.
func Error(message string) Envelope {
	return Envelope{Status: StatusError, Message: message}
}
