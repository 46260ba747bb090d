package handler

import (
	"time"

	"rollcall/internal/event"
)

// EventRequest is the body for creating or updating an event.
type EventRequest struct {
	Name                string    `json:"name"`
	Description         string    `json:"description,omitempty"`
	Location            string    `json:"location,omitempty"`
	StartAt             time.Time `json:"start_at"`
	EndAt               time.Time `json:"end_at"`
	IPAllowList         []string  `json:"ip_allow_list,omitempty"`
	AllowedEmailDomains []string  `json:"allowed_email_domains,omitempty"`
}

func (r EventRequest) toDomain() event.CreateRequest {
	return event.CreateRequest{
		Name:                r.Name,
		Description:         r.Description,
		Location:            r.Location,
		StartAt:             r.StartAt,
		EndAt:               r.EndAt,
		IPAllowList:         r.IPAllowList,
		AllowedEmailDomains: r.AllowedEmailDomains,
	}
}

// EventResponse is the transport shape of an event.
type EventResponse struct {
	ID                  string    `json:"id"`
	CreatorID           string    `json:"creator_id"`
	Name                string    `json:"name"`
	Description         string    `json:"description,omitempty"`
	Location            string    `json:"location,omitempty"`
	StartAt             time.Time `json:"start_at"`
	EndAt               time.Time `json:"end_at"`
	IPAllowList         []string  `json:"ip_allow_list,omitempty"`
	AllowedEmailDomains []string  `json:"allowed_email_domains,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
}

func FromEvent(ev *event.Event) *EventResponse {
	if ev == nil {
		return nil
	}
	return &EventResponse{
		ID:                  ev.ID.String(),
		CreatorID:           ev.CreatorID,
		Name:                ev.Name,
		Description:         ev.Description,
		Location:            ev.Location,
		StartAt:             ev.StartAt,
		EndAt:               ev.EndAt,
		IPAllowList:         ev.IPAllowList,
		AllowedEmailDomains: ev.AllowedEmailDomains,
		CreatedAt:           ev.CreatedAt,
	}
}

func FromEvents(events []*event.Event) []*EventResponse {
	out := make([]*EventResponse, 0, len(events))
	for _, ev := range events {
		out = append(out, FromEvent(ev))
	}
	return out
}
