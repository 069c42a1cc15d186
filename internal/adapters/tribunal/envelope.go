package tribunal

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/lexhive/juris-cli/internal/domain"
)

// Wire shapes of the records portal. The portal is inconsistent across
// deployments, so date fields stay strings and parse leniently.

type caseWire struct {
	Number       string      `json:"caseNumber"`
	Court        string      `json:"court"`
	Class        string      `json:"class"`
	Subject      string      `json:"subject"`
	Area         string      `json:"area"`
	Judge        string      `json:"judge"`
	Claimant     string      `json:"claimant"`
	Defendant    string      `json:"defendant"`
	FiledAt      string      `json:"filedAt"`
	ValueCents   int64       `json:"valueCents"`
	CurrentStage *stageWire  `json:"currentStage"`
	Stages       []stageWire `json:"stages"`
}

type stageWire struct {
	Name      string         `json:"name"`
	Current   bool           `json:"current"`
	StartedAt string         `json:"startedAt"`
	Documents []documentWire `json:"documents"`
}

type documentWire struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Kind     string `json:"kind"`
	Href     string `json:"href"`
	IssuedAt string `json:"issuedAt"`
}

// caseEnvelope absorbs the portal's habit of returning a full case either
// as a bare object or as a one-element list, depending on the deployment.
type caseEnvelope struct {
	caseWire
}

func (e *caseEnvelope) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []caseWire
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return err
		}
		if len(list) == 0 {
			return errors.New("empty case list")
		}
		e.caseWire = list[0]

		return nil
	}

	return json.Unmarshal(trimmed, &e.caseWire)
}

type searchRequestWire struct {
	Numbers []string `json:"numbers"`
}

type searchResponseWire struct {
	Cases []caseWire `json:"cases"`
}

func (w caseWire) toCover() domain.CaseCover {
	return domain.CaseCover{
		Number:     domain.NormalizeCaseNumber(w.Number),
		Court:      w.Court,
		Class:      w.Class,
		Subject:    w.Subject,
		Area:       w.Area,
		Judge:      w.Judge,
		Claimant:   w.Claimant,
		Defendant:  w.Defendant,
		FiledAt:    parsePortalTime(w.FiledAt),
		ValueCents: w.ValueCents,
	}
}

func (w caseWire) toDomain() domain.Case {
	c := domain.Case{
		Number: domain.NormalizeCaseNumber(w.Number),
		Cover:  w.toCover(),
		Stages: make([]domain.Stage, 0, len(w.Stages)),
	}
	for _, stage := range w.Stages {
		c.Stages = append(c.Stages, stage.toDomain())
	}
	c.Documents = extractDocuments(w)

	return c
}

func (w stageWire) toDomain() domain.Stage {
	return domain.Stage{
		Name:      w.Name,
		Current:   w.Current,
		StartedAt: parsePortalTime(w.StartedAt),
		Documents: mapDocuments(w.Documents),
	}
}

// extractDocuments concatenates the document lists from both places the
// portal is known to put them: the current-stage substructure and the
// stages list. Some deployments fill one, some the other, some both.
func extractDocuments(w caseWire) []domain.Document {
	var docs []domain.Document
	if w.CurrentStage != nil {
		docs = append(docs, mapDocuments(w.CurrentStage.Documents)...)
	}
	for _, stage := range w.Stages {
		docs = append(docs, mapDocuments(stage.Documents)...)
	}

	return docs
}

func mapDocuments(wire []documentWire) []domain.Document {
	if len(wire) == 0 {
		return nil
	}

	docs := make([]domain.Document, 0, len(wire))
	for _, d := range wire {
		docs = append(docs, domain.Document{
			ID:       d.ID,
			Title:    d.Title,
			Kind:     d.Kind,
			Href:     d.Href,
			IssuedAt: parsePortalTime(d.IssuedAt),
		})
	}

	return docs
}

func parsePortalTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}

	return time.Time{}
}

// deriveCaseNumber finds the path segment carrying the twenty-digit case
// number, punctuated or raw, that document hrefs embed.
func deriveCaseNumber(href string) domain.CaseNumber {
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}

	for _, segment := range strings.Split(parsed.Path, "/") {
		if number := domain.NormalizeCaseNumber(segment); len(number) == 20 {
			return number
		}
	}

	return ""
}
