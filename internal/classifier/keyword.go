package classifier

import (
	"context"
	"fmt"
	"strings"

	"grievance-intake-go/internal/types"
)

// Rule maps a category to its routing department and trigger keywords.
type Rule struct {
	Category   types.Category
	Department string
	Keywords   []string
}

// DefaultRules is the routing table. Order matters: ties go to the earlier rule.
// Devanagari tokens catch text that slipped through untranslated.
func DefaultRules() []Rule {
	return []Rule{
		{types.CategoryWaterSupply, "Water Supply Department", []string{"water", "pipeline", "tap", "supply", "leak", "पानी", "नल", "पाणी"}},
		{types.CategoryRoads, "Public Works Department", []string{"road", "pothole", "bridge", "footpath", "infrastructure", "रोड", "सड़क", "रस्ता"}},
		{types.CategoryElectricity, "Electricity Board", []string{"electricity", "power", "light", "transformer", "billing", "बिजली", "विद्युत"}},
		{types.CategoryHealth, "Health Department", []string{"hospital", "doctor", "medical", "health", "ambulance", "अस्पताल", "डॉक्टर", "रुग्णालय"}},
		{types.CategorySanitation, "Sanitation Department", []string{"garbage", "waste", "drain", "sanitation", "cleanliness", "कचरा", "गंदगी", "स्वच्छता"}},
		{types.CategoryEducation, "Education Department", []string{"school", "teacher", "education", "classroom", "स्कूल", "शिक्षक", "शाळा"}},
		{types.CategoryTransport, "Transport Department", []string{"bus", "train", "transport", "auto", "बस", "ट्रेन", "वाहतूक"}},
		{types.CategoryLawAndOrder, "Police Department", []string{"police", "crime", "theft", "safety", "पुलिस", "चोरी"}},
		{types.CategoryHousing, "Housing Department", []string{"house", "housing", "construction", "building", "घर", "मकान"}},
	}
}

// KeywordStrategy scores text by case-insensitive substring hits per rule.
// It is deterministic and never fails.
type KeywordStrategy struct {
	rules []Rule
}

func NewKeywordStrategy(rules []Rule) *KeywordStrategy {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &KeywordStrategy{rules: rules}
}

func (k *KeywordStrategy) Name() string { return StrategyKeyword }

func (k *KeywordStrategy) Classify(_ context.Context, text string) (Result, error) {
	return k.classify(text), nil
}

func (k *KeywordStrategy) classify(text string) Result {
	lower := strings.ToLower(text)

	best := -1
	var bestHits []string
	for i, rule := range k.rules {
		var hits []string
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				hits = append(hits, kw)
			}
		}
		if len(hits) > len(bestHits) {
			best, bestHits = i, hits
		}
	}

	if best < 0 {
		return Result{
			Category:    types.CategoryOther,
			Department:  types.DefaultDepartment,
			Strategy:    StrategyKeyword,
			Explanation: "No category keywords found; routed to general administration.",
		}
	}
	rule := k.rules[best]
	return Result{
		Category:    rule.Category,
		Department:  rule.Department,
		Strategy:    StrategyKeyword,
		Explanation: fmt.Sprintf("Matched keywords: %s.", strings.Join(bestHits, ", ")),
	}
}
