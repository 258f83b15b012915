package mapping

import "github.com/creatorjobs/creatorjobs-api/internal/models"

// JobSpecs returns the destination vocabularies for a job publish. These
// tables are the single place where form keys meet service schemas; a key
// missing from both Mappings and Ignore fails the submission in strict mode.
//
// Cardinality per field follows the receiving schema: the CMS language and
// country fields are multi-reference (arrays of option item IDs), the sheet
// backend stores them as one comma-joined text cell, and the CMS category is
// a single reference so only the first selection survives.
func JobSpecs() []*DestinationSpec {
	return []*DestinationSpec{
		{
			Destination: DestinationSheet,
			NameField:   "Name",
			Mappings: []FieldMapping{
				{Source: models.KeyProjectName, Target: "Project Name"},
				{Source: models.KeyDescription, Target: "Description"},
				{Source: models.KeyCompany, Target: "Company"},
				{Source: models.KeyContact, Target: "Contact Email"},
				{Source: models.KeyBudget, Target: "Budget"},
				{Source: models.KeyJobOnline, Target: "Online Date"},
				{Source: models.KeyCategory, Target: "Category"},
				{Source: models.KeyLanguages, Target: "Languages", Cardinality: CardinalityJoined},
				{Source: models.KeyCountries, Target: "Countries", Cardinality: CardinalityJoined},
				{Source: models.KeyRemote, Target: "Remote"},
				{Source: models.KeyPremium, Target: "Premium"},
				{Source: models.KeyMemberRef, Target: "Member Id"},
			},
			Inject: map[string]interface{}{
				"Status": "New",
			},
			// The sheet budget column is numeric; blank means "not announced"
			BlankValues: map[string]interface{}{
				models.KeyBudget: float64(0),
			},
		},
		{
			Destination: DestinationCMS,
			NameField:   "name",
			Mappings: []FieldMapping{
				{Source: models.KeyDescription, Target: "description"},
				{Source: models.KeyCompany, Target: "company-name"},
				{Source: models.KeyBudget, Target: "budget", Stringify: true},
				{Source: models.KeyJobOnline, Target: "job-online-date"},
				{Source: models.KeyCategory, Target: "category", Lookup: "categories", Cardinality: CardinalityFirst},
				{Source: models.KeyLanguages, Target: "languages", Lookup: "languages", Cardinality: CardinalityArray},
				{Source: models.KeyCountries, Target: "countries", Lookup: "countries", Cardinality: CardinalityArray},
				{Source: models.KeyRemote, Target: "remote"},
				{Source: models.KeyPremium, Target: "premium-job"},
			},
			Ignore: []string{
				models.KeyProjectName, // mirrored into the name field
				models.KeyMemberRef,
				models.KeyContact,
			},
			Inject: map[string]interface{}{
				"_archived": false,
				"_draft":    false,
			},
			// The CMS budget field is plain text
			BlankValues: map[string]interface{}{
				models.KeyBudget: "tba",
			},
		},
		{
			Destination: DestinationMembership,
			NameField:   "jobName",
			Mappings: []FieldMapping{
				{Source: models.KeyMemberRef, Target: "memberId"},
				{Source: models.KeyPremium, Target: "premiumJob"},
			},
			Ignore: []string{
				models.KeyProjectName,
				models.KeyDescription,
				models.KeyCompany,
				models.KeyContact,
				models.KeyBudget,
				models.KeyJobOnline,
				models.KeyCategory,
				models.KeyLanguages,
				models.KeyCountries,
				models.KeyRemote,
			},
		},
	}
}
