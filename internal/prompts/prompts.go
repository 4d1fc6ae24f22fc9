// Package prompts holds the fixed system instructions and user prompt
// builders for every text-generation call the service makes.
package prompts

import (
	"fmt"
	"strings"
)

// SystemEvaluator is the fixed instruction for the response analyzer.
const SystemEvaluator = `You are an expert interview evaluator. Analyze the following interview response based on:
- Relevance to the question
- Clarity and structure
- Technical accuracy (if applicable)
- Use of specific examples
- Communication effectiveness

Structure your analysis with "Key Points:", "Strengths:", "Weaknesses:" and "Improvements:" sections, each listing items as "- " bullets.`

// SystemQuestionGenerator is the fixed instruction for question generation.
const SystemQuestionGenerator = `You are an expert technical interviewer specializing in generating personalized interview questions. Consider:
- Candidate's experience level and skills
- Job requirements and responsibilities
- Industry best practices
- Behavioral and technical aspects`

// SystemMatchAnalyzer is the fixed instruction for job match analysis.
const SystemMatchAnalyzer = `You are an expert job match analyzer. Compare the candidate's profile with job requirements and provide:
- Strengths and gaps
- Specific recommendations for improving match
List strengths under "Strengths:", gaps under "Gaps:", and recommendations under "Recommendations:", each as "- " bullets.`

// Evaluation builds the analyzer's user message for one answer.
func Evaluation(question, transcript string) string {
	return fmt.Sprintf("Question: %s\n\nResponse: %s", question, transcript)
}

// Questions builds the question-generation prompt from resume and job
// context.
func Questions(skills []string, experience, jobTitle, jobRequirements string) string {
	return fmt.Sprintf(`Generate 5 interview questions based on this context:

Resume Skills: %s
Experience Level: %s
Job Title: %s
Job Requirements: %s

Generate a mix of:
1. Technical questions specific to the candidate's skills
2. System design questions appropriate for their level
3. Behavioral questions relevant to the role
4. Problem-solving scenarios
5. Role-specific questions

For each question, provide:
- Question text
- Type (technical/behavioral/system-design/problem-solving)
- Difficulty (junior/intermediate/senior)
- Key Points: expected key points in the answer
- Follow-up Questions: follow-up questions

Start each question with "Question N:" on its own line. Ensure questions are calibrated to the candidate's experience level, relevant to the job requirements, progressive in difficulty, and clear and unambiguous.`,
		strings.Join(skills, ", "), experience, jobTitle, jobRequirements)
}

// Match builds the job-match analysis user message.
func Match(resumeJSON, jobJSON string) string {
	return fmt.Sprintf("Resume Analysis: %s\nJob Analysis: %s", resumeJSON, jobJSON)
}

// Resume is the resume-analysis prompt sent to the Gemini adapter.
func Resume(resumeText string) string {
	return fmt.Sprintf(`Analyze this resume and extract:
- Key Points: key skills
- Strengths: project highlights
- Areas for improvement: areas for improvement
Also state "Experience Level:" on its own line as junior, intermediate or senior.

Resume:
%s`, resumeText)
}
