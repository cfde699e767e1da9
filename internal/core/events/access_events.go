package events

import "time"

const (
	EventTypeAccessRequestDecided   = "access.request.decided"
	EventTypeSecurityEventEscalated = "security.event.escalated"
)

type AccessRequestDecidedEvent struct {
	BaseEvent
	RequestID   string `json:"request_id"`
	RequestType string `json:"request_type"`
	Email       string `json:"email"`
	Status      string `json:"status"`
}

func NewAccessRequestDecidedEvent(requestID, requestType, email, status string) *AccessRequestDecidedEvent {
	return &AccessRequestDecidedEvent{
		BaseEvent: newBaseEvent(EventTypeAccessRequestDecided, map[string]interface{}{
			"request_id":   requestID,
			"request_type": requestType,
			"status":       status,
		}),
		RequestID:   requestID,
		RequestType: requestType,
		Email:       email,
		Status:      status,
	}
}

// SecurityEventEscalatedEvent carries a high or critical security event off
// the request path.
type SecurityEventEscalatedEvent struct {
	BaseEvent
	SecurityEventID string                 `json:"security_event_id"`
	LoggedAt        time.Time              `json:"logged_at"`
	IP              string                 `json:"ip"`
	UserID          string                 `json:"user_id"`
	Action          string                 `json:"action"`
	Path            string                 `json:"path"`
	Severity        string                 `json:"severity"`
	Details         map[string]interface{} `json:"details"`
}

func NewSecurityEventEscalatedEvent(id string, loggedAt time.Time, ip, userID, action, path, severity string, details map[string]interface{}) *SecurityEventEscalatedEvent {
	return &SecurityEventEscalatedEvent{
		BaseEvent: newBaseEvent(EventTypeSecurityEventEscalated, map[string]interface{}{
			"security_event_id": id,
			"action":            action,
			"severity":          severity,
			"ip":                ip,
		}),
		SecurityEventID: id,
		LoggedAt:        loggedAt,
		IP:              ip,
		UserID:          userID,
		Action:          action,
		Path:            path,
		Severity:        severity,
		Details:         details,
	}
}
