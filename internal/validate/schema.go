package validate

import (
	"fmt"
	"strings"
)

// BlogPost is the strict structural schema for blog content.
type BlogPost struct {
	Title      string        `json:"title"`
	Intro      string        `json:"intro"`
	Sections   []BlogSection `json:"sections"`
	Conclusion string        `json:"conclusion"`
}

type BlogSection struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

func (p BlogPost) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if strings.TrimSpace(p.Intro) == "" {
		return fmt.Errorf("intro is required")
	}
	if len(p.Sections) < 3 || len(p.Sections) > 10 {
		return fmt.Errorf("sections must number between 3 and 10, got %d", len(p.Sections))
	}
	for i, s := range p.Sections {
		if len(strings.TrimSpace(s.Body)) < 100 {
			return fmt.Errorf("section %d body must be at least 100 characters", i+1)
		}
	}
	if strings.TrimSpace(p.Conclusion) == "" {
		return fmt.Errorf("conclusion is required")
	}
	return nil
}

// SocialContent is the strict structural schema for social media content.
type SocialContent struct {
	ShortPost    string   `json:"short_post"`
	LongPost     string   `json:"long_post"`
	Hashtags     []string `json:"hashtags"`
	CallToAction string   `json:"call_to_action"`
}

const maxShortPostLength = 300

func (s SocialContent) Validate() error {
	short := strings.TrimSpace(s.ShortPost)
	if short == "" {
		return fmt.Errorf("short_post is required")
	}
	if len(short) > maxShortPostLength {
		return fmt.Errorf("short_post must be at most %d characters", maxShortPostLength)
	}
	if strings.TrimSpace(s.LongPost) == "" {
		return fmt.Errorf("long_post is required")
	}
	if len(s.Hashtags) < 3 || len(s.Hashtags) > 5 {
		return fmt.Errorf("hashtags must number between 3 and 5, got %d", len(s.Hashtags))
	}
	if strings.TrimSpace(s.CallToAction) == "" {
		return fmt.Errorf("call_to_action is required")
	}
	return nil
}

// AudioScript is the strict structural schema for audio scripts.
type AudioScript struct {
	Hook       string         `json:"hook"`
	Sections   []AudioSection `json:"sections"`
	Conclusion string         `json:"conclusion"`
}

type AudioSection struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

func (a AudioScript) Validate() error {
	if strings.TrimSpace(a.Hook) == "" {
		return fmt.Errorf("hook is required")
	}
	if len(a.Sections) < 2 || len(a.Sections) > 8 {
		return fmt.Errorf("sections must number between 2 and 8, got %d", len(a.Sections))
	}
	for i, s := range a.Sections {
		if len(strings.TrimSpace(s.Body)) < 80 {
			return fmt.Errorf("section %d body must be at least 80 characters", i+1)
		}
	}
	if strings.TrimSpace(a.Conclusion) == "" {
		return fmt.Errorf("conclusion is required")
	}
	return nil
}

// VideoScript is the strict structural schema for video scripts.
type VideoScript struct {
	Hook       string       `json:"hook"`
	Scenes     []VideoScene `json:"scenes"`
	Conclusion string       `json:"conclusion"`
}

type VideoScene struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (v VideoScript) Validate() error {
	if strings.TrimSpace(v.Hook) == "" {
		return fmt.Errorf("hook is required")
	}
	if len(v.Scenes) < 2 || len(v.Scenes) > 10 {
		return fmt.Errorf("scenes must number between 2 and 10, got %d", len(v.Scenes))
	}
	for i, s := range v.Scenes {
		if len(strings.TrimSpace(s.Content)) < 50 {
			return fmt.Errorf("scene %d content must be at least 50 characters", i+1)
		}
	}
	if strings.TrimSpace(v.Conclusion) == "" {
		return fmt.Errorf("conclusion is required")
	}
	return nil
}
