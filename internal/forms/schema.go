package forms

import "github.com/creatorjobs/creatorjobs-api/internal/models"

// JobPostingSchema is the schema of the job-posting form on the site. The
// keys match the logical keys the mapper's destination tables are written
// against; the site posts the same keys in its submission JSON.
func JobPostingSchema() []models.FieldSpec {
	return []models.FieldSpec{
		{Key: models.KeyProjectName, Kind: models.KindText, Required: true},
		{Key: models.KeyDescription, Kind: models.KindTextarea},
		{Key: models.KeyCompany, Kind: models.KindText},
		{Key: models.KeyContact, Kind: models.KindText},
		{Key: models.KeyBudget, Kind: models.KindNumber},
		{Key: models.KeyJobOnline, Kind: models.KindDate},
		{Key: models.KeyCategory, Kind: models.KindSelect},
		{Key: "language", Kind: models.KindMultiSelect, Group: models.KeyLanguages},
		{Key: "country", Kind: models.KindMultiSelect, Group: models.KeyCountries},
		{Key: models.KeyRemote, Kind: models.KindCheckbox},
		{Key: models.KeyPremium, Kind: models.KindCheckbox},
		{Key: models.KeyMemberRef, Kind: models.KindText, Required: true},
	}
}
