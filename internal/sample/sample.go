// Package sample holds the built-in fallback dataset used when the
// reference files are unreachable on first run, so the API never starts
// empty.
package sample

import (
	"csf-data/internal/domain"
	"csf-data/internal/repository"
)

func People() []domain.Person {
	return []domain.Person{
		{ID: "sample-person-1", Name: "John Doe", Title: "Accountant", Email: "john.doe@almasecurity.com"},
		{ID: "sample-person-2", Name: "Jane Smith", Title: "IT Director", Email: "jane.smith@almasecurity.com"},
		{ID: "sample-person-3", Name: "Steve", Title: "GRC Analyst", Email: "steve@almasecurity.com"},
	}
}

func Artifacts() repository.ArtifactDirectory {
	return repository.ArtifactDirectory{
		NextSeq: 3,
		Items: []domain.Artifact{
			{
				ID:                   "sample-artifact-1",
				ArtifactID:           "A1",
				Name:                 "SOC-Ticket-1001",
				Description:          "Phishing Attack",
				Link:                 "https://github.com/CPAtoCybersecurity/csf_profile/blob/main/public/Sample_Artifacts/SOC-Ticket-1001.md",
				LinkedSubcategoryIDs: []string{"DE.AE-02 Ex1"},
			},
			{
				ID:                   "sample-artifact-2",
				ArtifactID:           "A2",
				Name:                 "SOC-Ticket-1004",
				Description:          "Unauthorized BitTorrent Traffic",
				Link:                 "https://github.com/CPAtoCybersecurity/csf_profile/blob/main/public/Sample_Artifacts/SOC-Ticket-1004.md",
				LinkedSubcategoryIDs: []string{"DE.AE-08 Ex1"},
			},
		},
	}
}

func Rows() []domain.AssessmentRow {
	return []domain.AssessmentRow{
		{
			ID:                     "DE.AE-02 Ex1",
			Function:               "DETECT (DE)",
			FunctionDescription:    "Possible cybersecurity attacks and compromises are found and analyzed.",
			Category:               "Adverse Event Analysis (DE.AE)",
			CategoryID:             "DE.AE",
			CategoryDescription:    "Anomalies, indicators of compromise, and other potentially adverse events are analyzed to characterize the events and detect cybersecurity incidents.",
			SubcategoryID:          "DE.AE-02",
			SubcategoryDescription: "Potentially adverse events are analyzed to better understand associated activities.",
			ImplementationExample:  "Use security information and event management (SIEM) or other tools to continuously monitor log events for known malicious and suspicious activity.",
			InScope:                domain.ScopeYes,
			TestingStatus:          domain.StatusNotStarted,
			LinkedArtifactNames:    []string{"SOC-Ticket-1001"},
		},
		{
			ID:                     "DE.AE-08 Ex1",
			Function:               "DETECT (DE)",
			FunctionDescription:    "Possible cybersecurity attacks and compromises are found and analyzed.",
			Category:               "Adverse Event Analysis (DE.AE)",
			CategoryID:             "DE.AE",
			CategoryDescription:    "Anomalies, indicators of compromise, and other potentially adverse events are analyzed to characterize the events and detect cybersecurity incidents.",
			SubcategoryID:          "DE.AE-08",
			SubcategoryDescription: "Incidents are declared when adverse events meet the defined incident criteria.",
			ImplementationExample:  "Apply incident criteria to known and assumed characteristics of activity in order to determine whether an incident should be declared.",
			InScope:                domain.ScopeYes,
			TestingStatus:          domain.StatusNotStarted,
			LinkedArtifactNames:    []string{"SOC-Ticket-1004"},
		},
	}
}

// LegendEntry is one row of the read-only scoring legend.
type LegendEntry struct {
	Score              string `json:"score"`
	Description        string `json:"description"`
	EvaluationCriteria string `json:"evaluation_criteria"`
	HowSecure          string `json:"how_secure"`
}

func Legend() []LegendEntry {
	return []LegendEntry{
		{Score: "0", Description: "Not Performed", EvaluationCriteria: "No evidence the control activity is performed.", HowSecure: "Not Secure"},
		{Score: "2", Description: "Performed Informally", EvaluationCriteria: "Control activity happens ad hoc, with no documented process.", HowSecure: "Slightly Secure"},
		{Score: "4", Description: "Planned and Tracked", EvaluationCriteria: "Control activity is documented and tracked, execution varies.", HowSecure: "Somewhat Secure"},
		{Score: "6", Description: "Well Defined", EvaluationCriteria: "Control activity follows a defined, communicated process.", HowSecure: "Moderately Secure"},
		{Score: "8", Description: "Quantitatively Controlled", EvaluationCriteria: "Control activity is measured and reviewed against targets.", HowSecure: "Mostly Secure"},
		{Score: "10", Description: "Continuously Improving", EvaluationCriteria: "Control activity is optimized through continuous improvement.", HowSecure: "Highly Secure (Resilient)"},
	}
}
