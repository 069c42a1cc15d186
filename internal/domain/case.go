package domain

import "time"

type Case struct {
	Number    CaseNumber
	Cover     CaseCover
	Stages    []Stage
	Documents []Document
}

type CaseCover struct {
	Number     CaseNumber
	Court      string
	Class      string
	Subject    string
	Area       string
	Judge      string
	Claimant   string
	Defendant  string
	FiledAt    time.Time
	ValueCents int64
}

type Stage struct {
	Name      string
	Current   bool
	StartedAt time.Time
	Documents []Document
}

type Document struct {
	ID       string
	Title    string
	Kind     string
	Href     string
	IssuedAt time.Time
}

func (c Case) DocumentCount() int {
	return len(c.Documents)
}

// CurrentStage returns the stage flagged as current, or the most recently
// started one when the portal omits the flag.
func (c Case) CurrentStage() (Stage, bool) {
	var latest Stage
	found := false

	for _, stage := range c.Stages {
		if stage.Current {
			return stage, true
		}
		if !found || stage.StartedAt.After(latest.StartedAt) {
			latest = stage
			found = true
		}
	}

	return latest, found
}
