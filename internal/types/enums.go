package types

import "fmt"

// Category is the closed set of complaint categories.
type Category string

const (
	CategoryWaterSupply Category = "Water Supply"
	CategoryRoads       Category = "Roads and Infrastructure"
	CategoryElectricity Category = "Electricity"
	CategoryHealth      Category = "Health Services"
	CategorySanitation  Category = "Sanitation"
	CategoryEducation   Category = "Education"
	CategoryTransport   Category = "Public Transport"
	CategoryLawAndOrder Category = "Law and Order"
	CategoryHousing     Category = "Housing"
	CategoryOther       Category = "Other"
)

// DefaultDepartment routes complaints that match no specific authority.
const DefaultDepartment = "General Administration"

var categories = []Category{
	CategoryWaterSupply,
	CategoryRoads,
	CategoryElectricity,
	CategoryHealth,
	CategorySanitation,
	CategoryEducation,
	CategoryTransport,
	CategoryLawAndOrder,
	CategoryHousing,
	CategoryOther,
}

// Categories returns every category in canonical order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

func (c Category) IsValid() bool {
	for _, v := range categories {
		if v == c {
			return true
		}
	}
	return false
}

func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.IsValid() {
		return "", &ValidationError{Field: "category", Message: fmt.Sprintf("unknown category %q", s)}
	}
	return c, nil
}

// Status is a complaint workflow state.
type Status string

const (
	StatusSubmitted   Status = "Submitted"
	StatusUnderReview Status = "Under Review"
	StatusInProgress  Status = "In Progress"
	StatusResolved    Status = "Resolved"
)

var statuses = []Status{StatusSubmitted, StatusUnderReview, StatusInProgress, StatusResolved}

func Statuses() []Status {
	out := make([]Status, len(statuses))
	copy(out, statuses)
	return out
}

func (s Status) IsValid() bool {
	for _, v := range statuses {
		if v == s {
			return true
		}
	}
	return false
}

// ParseStatus returns a ValidationError wrapping ErrInvalidStatus for unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", &ValidationError{
			Field:   "status",
			Message: "invalid status value, must be one of: Submitted, Under Review, In Progress, Resolved",
			Err:     ErrInvalidStatus,
		}
	}
	return st, nil
}

// Language is a supported submission language.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageHindi   Language = "hi"
	LanguageMarathi Language = "mr"
)

var languages = []Language{LanguageEnglish, LanguageHindi, LanguageMarathi}

func Languages() []Language {
	out := make([]Language, len(languages))
	copy(out, languages)
	return out
}

func (l Language) IsValid() bool {
	for _, v := range languages {
		if v == l {
			return true
		}
	}
	return false
}

// Name is the English name of the language, used in prompts.
func (l Language) Name() string {
	switch l {
	case LanguageHindi:
		return "Hindi"
	case LanguageMarathi:
		return "Marathi"
	case LanguageEnglish:
		return "English"
	}
	return string(l)
}

// Locale maps the language to the regional code speech engines expect.
func (l Language) Locale() string {
	switch l {
	case LanguageHindi:
		return "hi-IN"
	case LanguageMarathi:
		return "mr-IN"
	}
	return "en-IN"
}

// ParseLanguage treats an empty value as English.
func ParseLanguage(s string) (Language, error) {
	if s == "" {
		return LanguageEnglish, nil
	}
	l := Language(s)
	if !l.IsValid() {
		return "", &ValidationError{Field: "language", Message: fmt.Sprintf("unsupported language %q, must be one of: en, hi, mr", s)}
	}
	return l, nil
}
