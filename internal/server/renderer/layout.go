package renderer

import (
	"strings"

	"github.com/dmitrijs2005/neuroresume/internal/server/models"
)

type labels struct {
	DefaultName       string
	Objective         string
	Experience        string
	Skills            string
	Education         string
	Additional        string
	ObjectiveFallback string
	ExperienceMissing string
	SkillsFallback    string
	EducationMissing  string
	AdditionalText    string
}

var sectionLabels = map[models.Language]labels{
	models.LanguageRU: {
		DefaultName:       "Резюме кандидата",
		Objective:         "Цель",
		Experience:        "Опыт",
		Skills:            "Навыки",
		Education:         "Образование",
		Additional:        "Дополнительно",
		ObjectiveFallback: "Развитие в интересной роли с возможностью влиять на продукт.",
		ExperienceMissing: "Опыт будет детализирован после уточнения подробностей.",
		SkillsFallback:    "Готов сотрудничать и быстро осваивать новые инструменты.",
		EducationMissing:  "Информация об образовании уточняется.",
		AdditionalText:    "Готов к обсуждению предложений и открыт к новым вызовам.",
	},
	models.LanguageEN: {
		DefaultName:       "Candidate Resume",
		Objective:         "Objective",
		Experience:        "Experience",
		Skills:            "Skills",
		Education:         "Education",
		Additional:        "Additional",
		ObjectiveFallback: "Growing in a challenging role with real influence on the product.",
		ExperienceMissing: "Experience will be detailed once the specifics are clarified.",
		SkillsFallback:    "Collaborative and quick to pick up new tools.",
		EducationMissing:  "Education details to be confirmed.",
		AdditionalText:    "Open to offers and new challenges.",
	},
}

type section struct {
	title string
	lines []string
	list  bool
}

// sections resolves fallbacks and orders the resume body. The minimal
// template drops the closing section.
func sections(r Resume, template string, lang models.Language) (string, []section) {
	l, ok := sectionLabels[lang]
	if !ok {
		l = sectionLabels[models.DefaultLanguage]
	}

	name := r.Name
	if name == "" {
		name = l.DefaultName
	}

	objective := r.Objective
	if objective == "" {
		objective = l.ObjectiveFallback
	}

	experience := r.Experience
	if len(experience) == 0 {
		experience = []string{l.ExperienceMissing}
	}

	skills := l.SkillsFallback
	if len(r.Skills) > 0 {
		skills = strings.Join(r.Skills, ", ")
	}

	education := r.Education
	if education == "" {
		education = l.EducationMissing
	}

	additional := r.Additional
	if additional == "" {
		additional = l.AdditionalText
	}

	out := []section{
		{title: l.Objective, lines: []string{objective}},
		{title: l.Experience, lines: experience, list: true},
		{title: l.Skills, lines: []string{skills}},
		{title: l.Education, lines: []string{education}},
	}
	if template != TemplateMinimal {
		out = append(out, section{title: l.Additional, lines: []string{additional}})
	}
	return name, out
}

func renderMarkdown(r Resume, template string, lang models.Language) string {
	name, secs := sections(r, template, lang)

	var b strings.Builder
	switch template {
	case TemplateClassic:
		b.WriteString("# " + strings.ToUpper(name) + "\n")
	default:
		b.WriteString("# " + name + "\n")
	}

	for _, s := range secs {
		b.WriteString("\n")
		switch template {
		case TemplateClassic:
			b.WriteString("---\n\n## " + strings.ToUpper(s.title) + "\n")
		case TemplateMinimal:
			b.WriteString("### " + s.title + "\n")
		case TemplateCreative:
			b.WriteString("## ✦ " + s.title + "\n")
		default:
			b.WriteString("## " + s.title + "\n")
		}
		for _, line := range s.lines {
			if s.list {
				b.WriteString("- " + line + "\n")
			} else {
				b.WriteString(line + "\n")
			}
		}
	}
	return b.String()
}

func underline(s string, ch string) string {
	return strings.Repeat(ch, len([]rune(s)))
}

func renderText(r Resume, template string, lang models.Language) string {
	name, secs := sections(r, template, lang)

	heading := name
	if template == TemplateClassic {
		heading = strings.ToUpper(name)
	}

	var b strings.Builder
	b.WriteString(heading + "\n")
	b.WriteString(underline(heading, "=") + "\n")

	for _, s := range secs {
		title := s.title
		if template == TemplateClassic {
			title = strings.ToUpper(title)
		}
		b.WriteString("\n" + title + "\n")
		if template != TemplateMinimal {
			b.WriteString(underline(title, "-") + "\n")
		}
		for _, line := range s.lines {
			if s.list {
				b.WriteString("  * " + line + "\n")
			} else {
				b.WriteString(line + "\n")
			}
		}
	}
	return b.String()
}
