package ingest

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"csf-data/internal/domain"
	"csf-data/internal/repository"
)

// Directories is the normalizer's mutable working set: the two
// directories plus a log of what a batch created, so the caller can
// persist the deltas in one write (or throw the copy away for a
// dry run).
type Directories struct {
	People    []domain.Person
	Artifacts repository.ArtifactDirectory

	PeopleCreated    []domain.Person
	ArtifactsCreated []string
}

// ResolvePerson implements the directory lookup/creation rule: a token
// without a name yields ""; otherwise match case-insensitively by email
// first, then by name; otherwise create the person with defaulted
// title/email and return the new id. Later rows in the same batch see
// people created by earlier rows.
func (d *Directories) ResolvePerson(tok PersonToken) string {
	if tok.Name == "" {
		return ""
	}

	if tok.Email != "" {
		for i := range d.People {
			if strings.EqualFold(d.People[i].Email, tok.Email) {
				return d.People[i].ID
			}
		}
	}
	for i := range d.People {
		if strings.EqualFold(d.People[i].Name, tok.Name) {
			return d.People[i].ID
		}
	}

	email := tok.Email
	if email == "" {
		email = domain.DefaultEmail(tok.Name)
	} else {
		email = domain.CompleteEmail(email)
	}
	p := domain.Person{
		ID:    uuid.NewString(),
		Name:  tok.Name,
		Title: domain.DefaultImportedTitle,
		Email: email,
	}
	d.People = append(d.People, p)
	d.PeopleCreated = append(d.PeopleCreated, p)
	return p.ID
}

// ResolveArtifact looks the name up by exact match. A hit gains the row
// id in its back-reference list when absent; a miss creates the artifact
// with the next display code, the defaulted import description, and the
// row id seeded.
func (d *Directories) ResolveArtifact(name, rowID, linkURL string, now time.Time) *domain.Artifact {
	if a := d.Artifacts.FindByName(name); a != nil {
		if rowID != "" {
			a.AddSubcategory(rowID)
		}
		return a
	}

	a := domain.Artifact{
		ID:          uuid.NewString(),
		ArtifactID:  domain.DisplayCode(d.Artifacts.NextSeq),
		Name:        name,
		Description: domain.ImportedDescription(now),
		Link:        linkURL,
	}
	if rowID != "" {
		a.LinkedSubcategoryIDs = []string{rowID}
	}
	d.Artifacts.NextSeq++
	d.Artifacts.Items = append(d.Artifacts.Items, a)
	d.ArtifactsCreated = append(d.ArtifactsCreated, name)
	return &d.Artifacts.Items[len(d.Artifacts.Items)-1]
}
