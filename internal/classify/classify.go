// Package classify maps free-text content to topic, region, and
// category labels using ordered keyword tables. Every pattern is
// anchored at word boundaries so a keyword never fires inside an
// unrelated longer word ("war" must not match "software").
package classify

import (
	"regexp"
	"strings"
)

// Topic is a non-exclusive content label; one text may carry several.
type Topic string

const (
	TopicConflict  Topic = "CONFLICT"
	TopicElections Topic = "ELECTIONS"
	TopicEconomy   Topic = "ECONOMY"
	TopicEnergy    Topic = "ENERGY"
	TopicAI        Topic = "AI"
	TopicDiplomacy Topic = "DIPLOMACY"
)

// Region is a geographic label; at most one per text.
type Region string

const (
	RegionUkraine      Region = "Ukraine/Russia"
	RegionMiddleEast   Region = "Middle East"
	RegionAsiaPacific  Region = "Asia-Pacific"
	RegionEurope       Region = "Europe"
	RegionUS           Region = "United States"
	RegionLatinAmerica Region = "Latin America"
	RegionAfrica       Region = "Africa"
)

// Category is the exclusive panel bucket for a market.
type Category string

const (
	CategoryElections   Category = "elections"
	CategoryGeopolitics Category = "geopolitics"
	CategoryTech        Category = "tech"
	CategoryFinance     Category = "finance"
	CategoryPolitics    Category = "politics"
)

// DefaultCategory is returned when no category rule matches. This is a
// deliberate bucket-of-last-resort, not an error.
const DefaultCategory = CategoryPolitics

// pattern compiles a case-insensitive alternation with word boundaries
// on both sides of every term.
func pattern(terms ...string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(terms, "|") + `)\b`)
}

type topicRule struct {
	topic Topic
	re    *regexp.Regexp
}

var topicRules = []topicRule{
	{TopicConflict, pattern(
		"war", "invasion", "invades?", "ceasefire", "offensive", "airstrikes?",
		"missiles?", "drones?", "troops", "frontline", "escalat(?:es?|ion|ing)",
		"bombardment", "incursion",
	)},
	{TopicElections, pattern(
		"elections?", "ballots?", "electoral", "presidential", "candidates?",
		"nominees?", "primar(?:y|ies)", "midterms?", "runoff", "polling",
	)},
	{TopicEconomy, pattern(
		"inflation", "recession", "gdp", "interest rates?", "rate (?:cut|hike)s?",
		"tariffs?", "unemployment", "central banks?", "fed", "treasur(?:y|ies)",
	)},
	{TopicEnergy, pattern(
		"oil", "gas", "opec", "pipelines?", "crude", "lng", "barrels?",
		"refiner(?:y|ies)", "energy prices?",
	)},
	{TopicAI, pattern(
		"ai", "artificial intelligence", "agi", "llms?", "chatbots?",
		"machine learning", "openai", "anthropic", "deepmind",
	)},
	{TopicDiplomacy, pattern(
		"summits?", "treat(?:y|ies)", "sanctions?", "negotiations?",
		"ambassadors?", "diplomats?", "peace talks", "accords?",
	)},
}

type regionRule struct {
	region Region
	re     *regexp.Regexp
}

// regionRules are evaluated in order; the first match wins, so the
// more specific theaters come before the broad ones.
var regionRules = []regionRule{
	{RegionUkraine, pattern(
		"ukraine", "ukrainian", "russia", "russian", "kyiv", "moscow",
		"crimea", "donbas", "kharkiv", "zelensky", "putin", "kremlin",
	)},
	{RegionMiddleEast, pattern(
		"israel", "israeli", "gaza", "iran", "iranian", "hezbollah", "hamas",
		"lebanon", "syria", "yemen", "houthis?", "saudi", "tehran", "red sea",
	)},
	{RegionAsiaPacific, pattern(
		"china", "chinese", "taiwan", "beijing", "taipei", "north korea",
		"south korea", "japan", "pyongyang", "south china sea", "india",
	)},
	{RegionEurope, pattern(
		"europe", "european", "eu", "nato", "germany", "france", "britain",
		"uk", "brussels", "poland", "baltics?",
	)},
	{RegionUS, pattern(
		"united states", "america", "american", "washington", "congress",
		"white house", "senate", "pentagon", "trump", "biden",
	)},
	{RegionLatinAmerica, pattern(
		"brazil", "mexico", "argentina", "venezuela", "colombia", "chile",
		"latin america",
	)},
	{RegionAfrica, pattern(
		"africa", "african", "nigeria", "ethiopia", "sudan", "sahel",
		"kenya", "south africa",
	)},
}

type categoryRule struct {
	category Category
	re       *regexp.Regexp
}

// categoryRules are a strict priority order: a text matching both an
// elections and a finance keyword classifies as elections.
var categoryRules = []categoryRule{
	{CategoryElections, pattern(
		"elections?", "ballots?", "electoral", "primar(?:y|ies)", "midterms?",
		"presidential race", "candidates?", "nominees?", "runoff",
	)},
	{CategoryGeopolitics, pattern(
		"war", "invasion", "invades?", "ceasefire", "nato", "sanctions?",
		"nuclear", "military", "missiles?", "troops", "borders?", "treat(?:y|ies)",
	)},
	{CategoryTech, pattern(
		"ai", "artificial intelligence", "openai", "chips?", "semiconductors?",
		"software", "spacex", "apple", "google", "microsoft", "tech", "startups?",
	)},
	{CategoryFinance, pattern(
		"fed", "rates?", "inflation", "recession", "bitcoin", "crypto",
		"etfs?", "stocks?", "s&p", "gdp", "treasur(?:y|ies)", "earnings",
	)},
}

// exclusionRules drop off-topic records entirely: sports books,
// entertainment gossip, and meme assets would otherwise be
// miscategorized into a real panel.
var exclusionRules = []*regexp.Regexp{
	pattern(
		"nba", "nfl", "mlb", "nhl", "super bowl", "playoffs?",
		"premier league", "champions league", "world cup", "olympics",
		"ufc", "grand slam", "heisman", "touchdowns?",
	),
	pattern(
		"oscars?", "grammys?", "emmys?", "box office", "album", "celebrity",
		"bachelor(?:ette)?", "kardashian",
	),
	pattern(
		"dogecoin", "shiba", "memecoins?", "meme coins?", "pepe", "fartcoin",
	),
}

// DetectTopics returns every topic whose rule matches, in table order.
// An empty result is a valid outcome, not an error.
func DetectTopics(text string) []Topic {
	var topics []Topic
	for _, r := range topicRules {
		if r.re.MatchString(text) {
			topics = append(topics, r.topic)
		}
	}
	return topics
}

// DetectRegion returns the first region rule that matches, in table
// order, or ok=false when none does.
func DetectRegion(text string) (Region, bool) {
	for _, r := range regionRules {
		if r.re.MatchString(text) {
			return r.region, true
		}
	}
	return "", false
}

// CategorizeMarket assigns the single highest-priority category whose
// rule matches, falling back to DefaultCategory.
func CategorizeMarket(text string) Category {
	for _, r := range categoryRules {
		if r.re.MatchString(text) {
			return r.category
		}
	}
	return DefaultCategory
}

// ShouldExclude reports whether any exclusion rule matches. Exclusion
// runs before classification so off-topic records never reach a panel.
func ShouldExclude(text string) bool {
	for _, re := range exclusionRules {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
