package app

import "vietbuild/pkg/domain"

// mockAnalysis synthesizes a compliance result. The findings are fixed; only
// the counters are drawn from intn.
func mockAnalysis(intn func(int) int) domain.AnalysisResult {
	return domain.AnalysisResult{
		ComplianceScore:  intn(30) + 70,
		ItemsPassed:      intn(10) + 8,
		ItemsFlagged:     intn(5) + 1,
		PendingReview:    intn(4) + 2,
		StandardsChecked: intn(6) + 5,
		Risks: []domain.Risk{
			{
				ID:          "1",
				Severity:    domain.SeverityHigh,
				Title:       "Fire Safety Non-Compliance",
				Description: "Detected potential issues in fire safety requirements per QCVN 06:2022",
				Standards:   []string{"QCVN 06:2022", "Nghị định 136/2020"},
			},
			{
				ID:          "2",
				Severity:    domain.SeverityMedium,
				Title:       "Structural Documentation Gap",
				Description: "Missing load calculation details for foundation design",
				Standards:   []string{"TCVN 5574:2018"},
			},
		},
		ComplianceItems: []domain.ComplianceItem{
			{Parameter: "Concrete Strength", Standard: "≥ 30 MPa", Actual: "32 MPa", Status: domain.CheckPass},
			{Parameter: "Fire Rating", Standard: "REI 120", Actual: "REI 90", Status: domain.CheckFail},
			{Parameter: "Cover Depth", Standard: "≥ 40 mm", Actual: "45 mm", Status: domain.CheckPass},
			{Parameter: "Rebar Spacing", Standard: "≤ 200 mm", Actual: "180 mm", Status: domain.CheckPass},
		},
	}
}
