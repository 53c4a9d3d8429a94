package services

import (
	"context"
	"fmt"
)

// Metric is one engagement figure on the dashboard
type Metric struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Change string `json:"change"`
}

// RecommendedConnection is a suggested strategic connection
type RecommendedConnection struct {
	Name    string `json:"name"`
	Role    string `json:"role"`
	Company string `json:"company"`
	Value   string `json:"value"`
	Avatar  string `json:"avatar"`
}

// Insights summarizes the user's relationship growth
type Insights struct {
	GrowthThisMonth  string                  `json:"growth_this_month"`
	TotalConnections int                     `json:"total_connections"`
	Recommended      []RecommendedConnection `json:"recommended"`
}

const avatarURLFormat = "https://api.dicebear.com/7.x/avataaars/svg?seed=%s"

// AnalyticsService serves the engagement dashboard. LinkedIn does not expose
// these figures to third parties, so the values are fixed.
type AnalyticsService struct{}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService() *AnalyticsService {
	return &AnalyticsService{}
}

// Performance returns the post performance metrics
func (s *AnalyticsService) Performance(ctx context.Context, userID string) []Metric {
	return []Metric{
		{Name: "Post Reach", Value: "2,453", Change: "+12%"},
		{Name: "Engagement Rate", Value: "4.7%", Change: "+0.8%"},
		{Name: "Profile Views", Value: "342", Change: "+24%"},
		{Name: "Best Posting Time", Value: "Tue, 9AM", Change: ""},
	}
}

// Insights returns relationship growth and recommended connections
func (s *AnalyticsService) Insights(ctx context.Context, userID string) Insights {
	return Insights{
		GrowthThisMonth:  "+12%",
		TotalConnections: 342,
		Recommended: []RecommendedConnection{
			{Name: "Sarah Johnson", Role: "Marketing Director", Company: "TechFlow", Value: "High", Avatar: fmt.Sprintf(avatarURLFormat, "sarah")},
			{Name: "Michael Chen", Role: "Product Manager", Company: "InnovateCorp", Value: "Medium", Avatar: fmt.Sprintf(avatarURLFormat, "michael")},
			{Name: "Aisha Patel", Role: "Data Scientist", Company: "AnalyticsPro", Value: "High", Avatar: fmt.Sprintf(avatarURLFormat, "aisha")},
		},
	}
}
