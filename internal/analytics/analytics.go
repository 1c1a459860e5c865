// Package analytics produces the dashboard's campaign report and records
// client-side events.
package analytics

import (
	"math"
	"time"
)

// Rand is the random source used to fill the report.
type Rand interface {
	Float64() float64
}

// Day is one point of the timeline.
type Day struct {
	Date        string  `json:"date"`
	Impressions int     `json:"impressions"`
	Clicks      int     `json:"clicks"`
	Conversions int     `json:"conversions"`
	CTR         float64 `json:"ctr"`
	CPC         float64 `json:"cpc"`
	ROAS        float64 `json:"roas"`
	Spend       int     `json:"spend"`
}

// Overview aggregates the timeline.
type Overview struct {
	TotalImpressions int     `json:"totalImpressions"`
	TotalClicks      int     `json:"totalClicks"`
	TotalConversions int     `json:"totalConversions"`
	AverageCTR       float64 `json:"averageCTR"`
	AverageCPC       float64 `json:"averageCPC"`
	AverageROAS      float64 `json:"averageROAS"`
	TotalSpend       int     `json:"totalSpend"`
}

// Ad is a top performing ad.
type Ad struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Impressions int     `json:"impressions"`
	Clicks      int     `json:"clicks"`
	Conversions int     `json:"conversions"`
	CTR         float64 `json:"ctr"`
	ROAS        float64 `json:"roas"`
}

// AgeShare is one demographic bucket.
type AgeShare struct {
	Age        string `json:"age"`
	Percentage int    `json:"percentage"`
}

// InterestShare is one interest bucket.
type InterestShare struct {
	Category   string `json:"category"`
	Percentage int    `json:"percentage"`
}

// PlatformShare is spend and performance per ad platform.
type PlatformShare struct {
	Platform    string  `json:"platform"`
	Spend       int     `json:"spend"`
	Performance float64 `json:"performance"`
}

// AudienceInsights describes who sees the ads.
type AudienceInsights struct {
	Demographics []AgeShare      `json:"demographics"`
	Interests    []InterestShare `json:"interests"`
	Platforms    []PlatformShare `json:"platforms"`
}

// SeasonalTrend is a monthly campaign theme.
type SeasonalTrend struct {
	Month string `json:"month"`
	Trend string `json:"trend"`
}

// MarketTrends lists keyword and channel movement.
type MarketTrends struct {
	GrowingKeywords   []string        `json:"growingKeywords"`
	DecliningKeywords []string        `json:"decliningKeywords"`
	EmergingChannels  []string        `json:"emergingChannels"`
	SeasonalTrends    []SeasonalTrend `json:"seasonalTrends"`
}

// Report is the full analytics payload.
type Report struct {
	Overview         Overview         `json:"overview"`
	Timeline         []Day            `json:"timeline"`
	TopPerformingAds []Ad             `json:"topPerformingAds"`
	AudienceInsights AudienceInsights `json:"audienceInsights"`
	MarketTrends     MarketTrends     `json:"marketTrends"`
}

// Days maps a range label to its length: 7d, 30d, and 90 for anything else.
func Days(rangeLabel string) int {
	switch rangeLabel {
	case "7d":
		return 7
	case "30d":
		return 30
	default:
		return 90
	}
}

// Generate builds a report covering the range ending at now. The timeline
// holds days+1 points, oldest first.
func Generate(rangeLabel string, now time.Time, rng Rand) Report {
	days := Days(rangeLabel)
	timeline := make([]Day, 0, days+1)
	for i := days; i >= 0; i-- {
		timeline = append(timeline, Day{
			Date:        now.AddDate(0, 0, -i).UTC().Format(time.DateOnly),
			Impressions: between(rng, 10000, 5000),
			Clicks:      between(rng, 500, 100),
			Conversions: between(rng, 50, 10),
			CTR:         round2(rng.Float64()*3 + 1),
			CPC:         round2(rng.Float64()*2 + 0.5),
			ROAS:        round2(rng.Float64()*3 + 2),
			Spend:       between(rng, 1000, 500),
		})
	}
	return Report{
		Overview:         overview(timeline),
		Timeline:         timeline,
		TopPerformingAds: topAds(),
		AudienceInsights: audience(),
		MarketTrends:     trends(),
	}
}

func between(rng Rand, span, base int) int {
	return int(math.Floor(rng.Float64()*float64(span))) + base
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func overview(timeline []Day) Overview {
	var o Overview
	var ctr, cpc, roas float64
	for _, d := range timeline {
		o.TotalImpressions += d.Impressions
		o.TotalClicks += d.Clicks
		o.TotalConversions += d.Conversions
		o.TotalSpend += d.Spend
		ctr += d.CTR
		cpc += d.CPC
		roas += d.ROAS
	}
	if n := float64(len(timeline)); n > 0 {
		o.AverageCTR = round2(ctr / n)
		o.AverageCPC = round2(cpc / n)
		o.AverageROAS = round2(roas / n)
	}
	return o
}

func topAds() []Ad {
	return []Ad{
		{ID: "1", Title: "Revolutionary AI Marketing Tool", Impressions: 45000, Clicks: 2250, Conversions: 180, CTR: 5.0, ROAS: 4.5},
		{ID: "2", Title: "Exclusive Marketing Automation", Impressions: 38000, Clicks: 1900, Conversions: 152, CTR: 4.8, ROAS: 4.2},
		{ID: "3", Title: "Trending Social Media Strategy", Impressions: 42000, Clicks: 2100, Conversions: 168, CTR: 4.9, ROAS: 4.3},
	}
}

func audience() AudienceInsights {
	return AudienceInsights{
		Demographics: []AgeShare{
			{Age: "18-24", Percentage: 15},
			{Age: "25-34", Percentage: 35},
			{Age: "35-44", Percentage: 28},
			{Age: "45-54", Percentage: 15},
			{Age: "55+", Percentage: 7},
		},
		Interests: []InterestShare{
			{Category: "Marketing", Percentage: 45},
			{Category: "Technology", Percentage: 32},
			{Category: "Business", Percentage: 28},
			{Category: "Social Media", Percentage: 25},
			{Category: "Analytics", Percentage: 18},
		},
		Platforms: []PlatformShare{
			{Platform: "Google Ads", Spend: 45, Performance: 4.2},
			{Platform: "Facebook Ads", Spend: 30, Performance: 3.8},
			{Platform: "LinkedIn Ads", Spend: 15, Performance: 4.5},
			{Platform: "Twitter Ads", Spend: 10, Performance: 3.5},
		},
	}
}

func trends() MarketTrends {
	return MarketTrends{
		GrowingKeywords:   []string{"AI marketing", "automation", "personalization", "ROI optimization"},
		DecliningKeywords: []string{"traditional advertising", "mass marketing", "one-size-fits-all"},
		EmergingChannels:  []string{"TikTok Ads", "Pinterest Shopping", "Snapchat AR"},
		SeasonalTrends: []SeasonalTrend{
			{Month: "Jan", Trend: "New Year campaigns"},
			{Month: "Feb", Trend: "Valentine's promotions"},
			{Month: "Mar", Trend: "Spring launches"},
			{Month: "Apr", Trend: "Easter marketing"},
		},
	}
}
