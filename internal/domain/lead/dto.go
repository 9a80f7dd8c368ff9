package lead

import "topglass/internal/domain"

// CreateLeadRequest is the public insert payload. The id is chosen by the
// caller so that uploads can reference the lead before any read-back.
type CreateLeadRequest = domain.LeadFields

type CreateLeadResponse struct {
	ID string `json:"id"`
}

type UpdateStatusRequest struct {
	Status Status `json:"status" validate:"required,oneof=new contacted in_progress completed cancelled"`
}

type UpdateNotesRequest struct {
	Notes *string `json:"notes" validate:"omitempty,max=5000"`
}

type ListResponse struct {
	Leads []Lead `json:"leads"`
	Total int64  `json:"total"`
}

type Stats struct {
	Total      int64 `json:"total"`
	New        int64 `json:"new"`
	InProgress int64 `json:"in_progress"`
	Completed  int64 `json:"completed"`
	ThisWeek   int64 `json:"this_week"`
}
