package dto

import "anoa.com/linkbio/internal/entity"

type DashboardStats struct {
	TotalLinks    int64 `json:"total_links"`
	TotalClicks   int64 `json:"total_clicks"`
	TotalBioLinks int64 `json:"total_bio_links"`
	// TotalUsers is only filled in for admins.
	TotalUsers *int64 `json:"total_users,omitempty"`
}

type DayClicks struct {
	Date   string `json:"date"`
	Clicks int64  `json:"clicks"`
}

type ClicksQuery struct {
	Days int `form:"days" binding:"omitempty,min=1,max=365"`
}

type TopLinksQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=50"`
}

type TopLinksResponse struct {
	Data []*entity.Link `json:"data"`
}
