package dto

import (
	"time"

	"addons_backend/internal/models"
)

// ======================
// Request DTOs
// ======================

type CreateRatingRequest struct {
	AddonID   uint    `json:"addon" validate:"required"`
	VersionID *uint   `json:"version,omitempty"`
	Score     *int    `json:"score" validate:"required,is-rating-score"`
	Body      *string `json:"body,omitempty" validate:"omitempty,max=10000"`
	IPAddress string  `json:"-"`
}

type UpdateRatingRequest struct {
	Score *int    `json:"score,omitempty" validate:"omitempty,is-rating-score"`
	Body  *string `json:"body,omitempty" validate:"omitempty,max=10000"`
}

type ReplyRequest struct {
	Body string `json:"body" validate:"required,max=10000"`
}

type FlagRequest struct {
	Flag string `json:"flag" validate:"required,is-flag-reason"`
	Note string `json:"note,omitempty" validate:"max=100"`
}

// RatingListQuery is bound from the query string.
type RatingListQuery struct {
	AddonID     *uint  `form:"addon"`
	UserID      *uint  `form:"user"`
	VersionID   *uint  `form:"version"`
	ExcludeIDs  []uint `form:"exclude_ratings"`
	ShowGrouped bool   `form:"show_grouped_ratings"`
	Page        int    `form:"page" validate:"omitempty,min=1"`
	PageSize    int    `form:"page_size" validate:"omitempty,min=1,max=100"`
}

type SiteNoticeRequest struct {
	Notice string `json:"notice" validate:"max=2000"`
}

// ======================
// Response DTOs
// ======================

type RatingUser struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type RatingResponse struct {
	ID               uint            `json:"id"`
	AddonID          uint            `json:"addon"`
	VersionID        *uint           `json:"version"`
	User             RatingUser      `json:"user"`
	Score            *int            `json:"score"`
	Body             *string         `json:"body"`
	IsLatest         bool            `json:"is_latest"`
	PreviousCount    int             `json:"previous_count"`
	IsDeleted        bool            `json:"is_deleted,omitempty"`
	IsDeveloperReply bool            `json:"is_developer_reply"`
	Created          time.Time       `json:"created"`
	Modified         time.Time       `json:"modified"`
	Reply            *RatingResponse `json:"reply"`
}

type RatingListResponse struct {
	Ratings        []*RatingResponse `json:"results"`
	Total          int64             `json:"count"`
	Page           int               `json:"page"`
	PageSize       int               `json:"page_size"`
	TotalPages     int               `json:"total_pages"`
	GroupedRatings map[int]int       `json:"grouped_ratings,omitempty"`
}

type FlagResponse struct {
	RatingID uint   `json:"rating"`
	Flag     string `json:"flag"`
	Note     string `json:"note"`
}

type ActivityResponse struct {
	ID       uint                   `json:"id"`
	Action   string                 `json:"action"`
	User     RatingUser             `json:"user"`
	AddonID  *uint                  `json:"addon"`
	RatingID *uint                  `json:"rating"`
	Details  map[string]interface{} `json:"details,omitempty"`
	Created  time.Time              `json:"created"`
}

type ActivityListResponse struct {
	Entries    []*ActivityResponse `json:"results"`
	Total      int64               `json:"count"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"page_size"`
	TotalPages int                 `json:"total_pages"`
}

// NewRatingResponse builds the response; reply is attached by the caller.
func NewRatingResponse(r *models.Rating) *RatingResponse {
	resp := &RatingResponse{
		ID:               r.ID,
		AddonID:          r.AddonID,
		VersionID:        r.VersionID,
		User:             RatingUser{ID: r.UserID},
		Score:            r.Rating,
		Body:             r.Body,
		IsLatest:         r.IsLatest,
		PreviousCount:    r.PreviousCount,
		IsDeleted:        r.Deleted,
		IsDeveloperReply: r.IsReply(),
		Created:          r.CreatedAt,
		Modified:         r.UpdatedAt,
	}
	if r.User != nil {
		resp.User.Name = r.User.Name()
	}
	return resp
}

func TotalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
