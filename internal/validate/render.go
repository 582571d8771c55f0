package validate

import (
	"fmt"
	"strings"
)

// The renderers below flatten structured content into a deterministic text
// form with fixed headings and section ordering. Each has an inverse parser
// so that an already-rendered text re-validates as valid without repair.

const (
	conclusionHeading = "## Conclusion"
	shortPostLabel    = "Short post:"
	longPostLabel     = "Long post:"
	hashtagsLabel     = "Hashtags:"
	ctaLabel          = "Call to action:"
	hookLabel         = "Hook:"
)

func RenderBlog(p BlogPost) string {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "# %s\n\n", strings.TrimSpace(p.Title))
	fmt.Fprintf(sb, "%s\n\n", strings.TrimSpace(p.Intro))
	for _, s := range p.Sections {
		fmt.Fprintf(sb, "## %s\n\n%s\n\n", strings.TrimSpace(s.Heading), strings.TrimSpace(s.Body))
	}
	fmt.Fprintf(sb, "%s\n\n%s", conclusionHeading, strings.TrimSpace(p.Conclusion))
	return sb.String()
}

func RenderSocial(s SocialContent) string {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "%s\n%s\n\n", shortPostLabel, strings.TrimSpace(s.ShortPost))
	fmt.Fprintf(sb, "%s\n%s\n\n", longPostLabel, strings.TrimSpace(s.LongPost))
	tags := make([]string, 0, len(s.Hashtags))
	for _, tag := range s.Hashtags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if !strings.HasPrefix(tag, "#") {
			tag = "#" + tag
		}
		tags = append(tags, tag)
	}
	fmt.Fprintf(sb, "%s %s\n\n", hashtagsLabel, strings.Join(tags, " "))
	fmt.Fprintf(sb, "%s\n%s", ctaLabel, strings.TrimSpace(s.CallToAction))
	return sb.String()
}

func RenderAudio(a AudioScript) string {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "%s\n%s\n\n", hookLabel, strings.TrimSpace(a.Hook))
	for _, s := range a.Sections {
		fmt.Fprintf(sb, "## %s\n\n%s\n\n", strings.TrimSpace(s.Heading), strings.TrimSpace(s.Body))
	}
	fmt.Fprintf(sb, "%s\n\n%s", conclusionHeading, strings.TrimSpace(a.Conclusion))
	return sb.String()
}

func RenderVideo(v VideoScript) string {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "%s\n%s\n\n", hookLabel, strings.TrimSpace(v.Hook))
	for i, s := range v.Scenes {
		fmt.Fprintf(sb, "## Scene %d: %s\n\n%s\n\n", i+1, strings.TrimSpace(s.Title), strings.TrimSpace(s.Content))
	}
	fmt.Fprintf(sb, "%s\n\n%s", conclusionHeading, strings.TrimSpace(v.Conclusion))
	return sb.String()
}

// parseRenderedBlog inverts RenderBlog. Returns false when the text does not
// carry the rendered shape.
func parseRenderedBlog(text string) (BlogPost, bool) {
	var p BlogPost
	lines := strings.Split(text, "\n")
	if len(lines) == 0 || !strings.HasPrefix(lines[0], "# ") {
		return p, false
	}
	p.Title = strings.TrimSpace(strings.TrimPrefix(lines[0], "# "))
	sections, intro, conclusion, ok := splitHeadingSections(lines[1:])
	if !ok {
		return p, false
	}
	p.Intro = intro
	p.Conclusion = conclusion
	for _, s := range sections {
		p.Sections = append(p.Sections, BlogSection(s))
	}
	return p, true
}

func parseRenderedSocial(text string) (SocialContent, bool) {
	var s SocialContent
	short, rest, ok := cutLabeled(text, shortPostLabel, longPostLabel)
	if !ok {
		return s, false
	}
	long, rest, ok := cutLabeled(rest, longPostLabel, hashtagsLabel)
	if !ok {
		return s, false
	}
	tagLine, rest, ok := cutLabeled(rest, hashtagsLabel, ctaLabel)
	if !ok {
		return s, false
	}
	idx := strings.Index(rest, ctaLabel)
	if idx < 0 {
		return s, false
	}
	s.ShortPost = short
	s.LongPost = long
	for _, tag := range strings.Fields(tagLine) {
		s.Hashtags = append(s.Hashtags, strings.TrimPrefix(tag, "#"))
	}
	s.CallToAction = strings.TrimSpace(rest[idx+len(ctaLabel):])
	return s, true
}

func parseRenderedAudio(text string) (AudioScript, bool) {
	var a AudioScript
	hook, rest, ok := cutLabeledLines(text)
	if !ok {
		return a, false
	}
	sections, leftover, conclusion, ok := splitHeadingSections(strings.Split(rest, "\n"))
	if !ok || strings.TrimSpace(leftover) != "" {
		return a, false
	}
	a.Hook = hook
	a.Conclusion = conclusion
	for _, s := range sections {
		a.Sections = append(a.Sections, AudioSection(s))
	}
	return a, true
}

func parseRenderedVideo(text string) (VideoScript, bool) {
	var v VideoScript
	hook, rest, ok := cutLabeledLines(text)
	if !ok {
		return v, false
	}
	sections, leftover, conclusion, ok := splitHeadingSections(strings.Split(rest, "\n"))
	if !ok || strings.TrimSpace(leftover) != "" {
		return v, false
	}
	v.Hook = hook
	v.Conclusion = conclusion
	for i, s := range sections {
		title := s.Heading
		prefix := fmt.Sprintf("Scene %d:", i+1)
		if !strings.HasPrefix(title, prefix) {
			return v, false
		}
		v.Scenes = append(v.Scenes, VideoScene{
			Title:   strings.TrimSpace(strings.TrimPrefix(title, prefix)),
			Content: s.Body,
		})
	}
	return v, true
}

type renderedSection struct {
	Heading string
	Body    string
}

// splitHeadingSections walks "## " delimited sections, returning the text
// before the first heading, the sections, and the terminal conclusion body.
func splitHeadingSections(lines []string) (sections []renderedSection, before, conclusion string, ok bool) {
	var preamble []string
	i := 0
	for i < len(lines) && !strings.HasPrefix(lines[i], "## ") {
		preamble = append(preamble, lines[i])
		i++
	}
	before = strings.TrimSpace(strings.Join(preamble, "\n"))

	sawConclusion := false
	for i < len(lines) {
		heading := strings.TrimSpace(strings.TrimPrefix(lines[i], "## "))
		i++
		var body []string
		for i < len(lines) && !strings.HasPrefix(lines[i], "## ") {
			body = append(body, lines[i])
			i++
		}
		bodyText := strings.TrimSpace(strings.Join(body, "\n"))
		if lines[i-len(body)-1] == conclusionHeading {
			conclusion = bodyText
			sawConclusion = true
			break
		}
		sections = append(sections, renderedSection{Heading: heading, Body: bodyText})
	}
	if !sawConclusion || len(sections) == 0 {
		return nil, "", "", false
	}
	return sections, before, conclusion, true
}

// cutLabeled extracts the block between startLabel and nextLabel.
func cutLabeled(text, startLabel, nextLabel string) (value, rest string, ok bool) {
	start := strings.Index(text, startLabel)
	if start != 0 {
		return "", "", false
	}
	after := text[len(startLabel):]
	end := strings.Index(after, nextLabel)
	if end < 0 {
		return "", "", false
	}
	return strings.TrimSpace(after[:end]), strings.TrimSpace(after[end:]), true
}

// cutLabeledLines extracts the hook block: everything between the hook label
// and the first section heading.
func cutLabeledLines(text string) (hook, rest string, ok bool) {
	if !strings.HasPrefix(text, hookLabel) {
		return "", "", false
	}
	after := text[len(hookLabel):]
	idx := strings.Index(after, "\n## ")
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(after[:idx]), strings.TrimSpace(after[idx:]), true
}
