package telegram

import (
	"regexp"
	"strconv"
	"strings"

	"mealcart/internal/planner"
)

var (
	adultsRe   = regexp.MustCompile(`(\w+)\s+(?:adults?|grown-?ups?)\b`)
	childrenRe = regexp.MustCompile(`(\w+)\s+(?:kids?|child|children|toddlers?)\b`)
	peopleRe   = regexp.MustCompile(`(?:for\s+)?(\w+)\s+(?:people|persons?)\b`)
)

var numberWords = map[string]int{
	"a": 1, "an": 1, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
}

// knownDiets are recognized in free text, in the order they are reported.
var knownDiets = []string{
	"vegetarian", "vegan", "pescatarian", "keto", "paleo", "mediterranean",
	"gluten-free", "dairy-free", "nut-free", "low-carb", "halal", "kosher",
}

// ParsePreferences reads a household description such as
// "2 adults 1 kid vegetarian" on top of defaults. Anything not mentioned keeps
// its default; the full text is kept as Notes for the planner.
func ParsePreferences(text string, defaults planner.Preferences) planner.Preferences {
	prefs := defaults
	lower := strings.ToLower(text)

	if n, ok := matchCount(adultsRe, lower); ok {
		prefs.Adults = n
	}
	if n, ok := matchCount(childrenRe, lower); ok {
		prefs.Children = n
	}
	if n, ok := matchCount(peopleRe, lower); ok && !adultsRe.MatchString(lower) {
		prefs.Adults = max(n-prefs.Children, 1)
	}

	var diets []string
	for _, d := range knownDiets {
		if strings.Contains(lower, d) || strings.Contains(lower, strings.ReplaceAll(d, "-", " ")) {
			diets = append(diets, d)
		}
	}
	if len(diets) > 0 {
		prefs.Diet = strings.Join(diets, ", ")
	}

	prefs.Notes = strings.TrimSpace(text)
	return prefs
}

func matchCount(re *regexp.Regexp, s string) (int, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	if n, err := strconv.Atoi(m[1]); err == nil {
		return n, true
	}
	n, ok := numberWords[m[1]]
	return n, ok
}
