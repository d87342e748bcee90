// Package scoring rates creators for the featured-creator list.
package scoring

import "math"

// Badge buckets an overall score.
type Badge string

const (
	BadgeExcellent    Badge = "excellent"
	BadgeStrong       Badge = "strong"
	BadgeRecommended  Badge = "recommended"
	BadgeNormal       Badge = "normal"
	BadgeReviewNeeded Badge = "review_needed"
)

// Audience is the reach of a creator on each platform.
type Audience struct {
	InstagramFollowers int64   `json:"instagram_followers"`
	TikTokFollowers    int64   `json:"tiktok_followers"`
	YouTubeSubscribers int64   `json:"youtube_subscribers"`
	EngagementRate     float64 `json:"engagement_rate"`
}

// PlatformScores are per-platform scores from 0 to 100.
type PlatformScores struct {
	YouTube   int `json:"youtube"`
	Instagram int `json:"instagram"`
	TikTok    int `json:"tiktok"`
}

// Overall combines reach (30), engagement (30) and platform diversity (40), capped at 100.
func Overall(a Audience) int {
	reach := math.Min(10, float64(a.InstagramFollowers)/10000) +
		math.Min(10, float64(a.TikTokFollowers)/10000) +
		math.Min(10, float64(a.YouTubeSubscribers)/5000)
	score := int(math.Floor(reach))

	score += int(math.Min(30, math.Floor(a.EngagementRate*100)))

	if a.InstagramFollowers > 1000 {
		score += 13
	}
	if a.TikTokFollowers > 1000 {
		score += 13
	}
	if a.YouTubeSubscribers > 500 {
		score += 14
	}
	return min(100, score)
}

func BadgeFor(score int) Badge {
	switch {
	case score >= 80:
		return BadgeExcellent
	case score >= 60:
		return BadgeStrong
	case score >= 40:
		return BadgeRecommended
	case score >= 20:
		return BadgeNormal
	}
	return BadgeReviewNeeded
}

func Platforms(a Audience) PlatformScores {
	per := func(n int64) int { return int(min(100, n/1000)) }
	return PlatformScores{
		YouTube:   per(a.YouTubeSubscribers),
		Instagram: per(a.InstagramFollowers),
		TikTok:    per(a.TikTokFollowers),
	}
}
