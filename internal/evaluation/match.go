package evaluation

import "strings"

// Match weighting mirrors the product's job-match breakdown: skills carry
// the most weight, then experience, then education, with a small residual
// for everything else.
const (
	matchWeightSkills     = 0.4
	matchWeightExperience = 0.3
	matchWeightEducation  = 0.2
	matchWeightOther      = 0.1

	// otherFactorsScore is the neutral residual applied when nothing beyond
	// skills/experience/education is comparable.
	otherFactorsScore = 70.0
)

// ResumeProfile is the candidate side of a match comparison.
type ResumeProfile struct {
	Skills          []string `json:"skills"`
	ExperienceYears float64  `json:"experience_years"`
	EducationLevel  string   `json:"education_level"`
}

// JobProfile is the job side of a match comparison.
type JobProfile struct {
	Skills             []string `json:"skills"`
	MinExperienceYears float64  `json:"min_experience_years"`
	EducationLevel     string   `json:"education_level"`
}

// SkillsMatch breaks the skills comparison down for display.
type SkillsMatch struct {
	Percentage float64  `json:"percentage"`
	Matching   []string `json:"matching"`
	Missing    []string `json:"missing"`
}

// MatchResult is the structured output of a match analysis.
type MatchResult struct {
	Overall         float64     `json:"overall"`
	Skills          SkillsMatch `json:"skills"`
	ExperiencePct   float64     `json:"experience_pct"`
	EducationPct    float64     `json:"education_pct"`
	Strengths       []string    `json:"strengths"`
	Gaps            []string    `json:"gaps"`
	Recommendations []string    `json:"recommendations"`
}

var educationRank = map[string]int{
	"high school": 1,
	"associate":   2,
	"bachelor":    3,
	"master":      4,
	"phd":         5,
	"doctorate":   5,
}

// MatchAnalyzer computes the heuristic resume/job comparison and folds in
// the strengths/gaps/recommendations sections parsed from the model prose.
type MatchAnalyzer struct{}

// NewMatchAnalyzer returns the default match analyzer.
func NewMatchAnalyzer() MatchAnalyzer { return MatchAnalyzer{} }

// Analyze compares resume and job and extracts the narrative sections from
// the model's analysis text.
func (MatchAnalyzer) Analyze(resume ResumeProfile, job JobProfile, analysisText string) MatchResult {
	skills := matchSkills(resume.Skills, job.Skills)
	expPct := experienceMatch(resume.ExperienceYears, job.MinExperienceYears)
	eduPct := educationMatch(resume.EducationLevel, job.EducationLevel)

	overall := skills.Percentage*matchWeightSkills +
		expPct*matchWeightExperience +
		eduPct*matchWeightEducation +
		otherFactorsScore*matchWeightOther

	return MatchResult{
		Overall:         clamp(overall),
		Skills:          skills,
		ExperiencePct:   expPct,
		EducationPct:    eduPct,
		Strengths:       SectionAfter(analysisText, "strengths"),
		Gaps:            SectionAfter(analysisText, "gaps", "missing"),
		Recommendations: SectionAfter(analysisText, "recommendations"),
	}
}

func matchSkills(resume, job []string) SkillsMatch {
	if len(job) == 0 {
		return SkillsMatch{Percentage: 100}
	}
	var matching, missing []string
	for _, want := range job {
		if hasSkill(resume, want) {
			matching = append(matching, want)
		} else {
			missing = append(missing, want)
		}
	}
	return SkillsMatch{
		Percentage: float64(len(matching)) / float64(len(job)) * 100,
		Matching:   matching,
		Missing:    missing,
	}
}

func hasSkill(skills []string, want string) bool {
	w := strings.ToLower(strings.TrimSpace(want))
	for _, s := range skills {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == w || strings.Contains(s, w) || strings.Contains(w, s) {
			return true
		}
	}
	return false
}

func experienceMatch(have, want float64) float64 {
	if want <= 0 {
		return 100
	}
	pct := have / want * 100
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	return pct
}

func educationMatch(have, want string) float64 {
	wantRank := rankEducation(want)
	if wantRank == 0 {
		return 100
	}
	haveRank := rankEducation(have)
	if haveRank >= wantRank {
		return 100
	}
	return float64(haveRank) / float64(wantRank) * 100
}

func rankEducation(level string) int {
	l := strings.ToLower(level)
	for name, rank := range educationRank {
		if strings.Contains(l, name) {
			return rank
		}
	}
	return 0
}
