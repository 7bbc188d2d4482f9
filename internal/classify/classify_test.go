package classify

import "testing"

func TestDetectTopicsWordBoundaries(t *testing.T) {
	// Terms embedded inside longer words must never match.
	tests := []string{
		"Microsoft ships a major software update",
		"New hardware accelerators announced",
		"Film wins top award at festival",
	}
	for _, text := range tests {
		for _, topic := range DetectTopics(text) {
			if topic == TopicConflict {
				t.Errorf("DetectTopics(%q) reported CONFLICT from an embedded substring", text)
			}
		}
	}
}

func TestDetectTopicsStandaloneKeyword(t *testing.T) {
	topics := DetectTopics("Ukraine war escalates after invasion")
	found := false
	for _, topic := range topics {
		if topic == TopicConflict {
			found = true
		}
	}
	if !found {
		t.Errorf("expected CONFLICT for standalone keywords, got %v", topics)
	}
}

func TestDetectTopicsMultipleNonExclusive(t *testing.T) {
	topics := DetectTopics("War fears drive inflation as oil prices surge")
	want := map[Topic]bool{TopicConflict: false, TopicEconomy: false, TopicEnergy: false}
	for _, topic := range topics {
		if _, ok := want[topic]; ok {
			want[topic] = true
		}
	}
	for topic, seen := range want {
		if !seen {
			t.Errorf("expected %s in %v", topic, topics)
		}
	}
}

func TestDetectTopicsStableOrder(t *testing.T) {
	a := DetectTopics("war and inflation and oil")
	b := DetectTopics("war and inflation and oil")
	if len(a) != len(b) {
		t.Fatalf("unstable result size: %v vs %v", a, b)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("unstable order at %d: %v vs %v", i, a, b)
		}
	}
}

func TestDetectTopicsNoMatch(t *testing.T) {
	if topics := DetectTopics("A quiet day with nothing notable"); len(topics) != 0 {
		t.Errorf("expected no topics, got %v", topics)
	}
}

func TestDetectRegionFirstMatchWins(t *testing.T) {
	// Matches both the Ukraine/Russia and Europe tables; the more
	// specific theater comes first.
	region, ok := DetectRegion("Russia tests European resolve over Ukraine")
	if !ok {
		t.Fatal("expected a region")
	}
	if region != RegionUkraine {
		t.Errorf("got %s, want %s", region, RegionUkraine)
	}
}

func TestDetectRegionNone(t *testing.T) {
	if region, ok := DetectRegion("Generic market chatter"); ok {
		t.Errorf("expected no region, got %s", region)
	}
}

func TestDetectRegionTable(t *testing.T) {
	tests := []struct {
		text string
		want Region
	}{
		{"Ceasefire talks stall in Gaza", RegionMiddleEast},
		{"Taiwan strait tensions rise as Beijing drills", RegionAsiaPacific},
		{"NATO summit opens in Brussels", RegionEurope},
		{"Senate passes the spending bill", RegionUS},
		{"Argentina devalues the peso again", RegionLatinAmerica},
		{"Fighting spreads across Sudan", RegionAfrica},
	}
	for _, tt := range tests {
		got, ok := DetectRegion(tt.text)
		if !ok {
			t.Errorf("DetectRegion(%q): expected a match", tt.text)
			continue
		}
		if got != tt.want {
			t.Errorf("DetectRegion(%q) = %s, want %s", tt.text, got, tt.want)
		}
	}
}

func TestCategorizePriorityOrder(t *testing.T) {
	// Matches both elections and finance keywords; elections outranks.
	cat := CategorizeMarket("Will the election move stocks before the Fed meeting?")
	if cat != CategoryElections {
		t.Errorf("got %s, want %s", cat, CategoryElections)
	}
}

func TestCategorizeGeopoliticsOverTech(t *testing.T) {
	cat := CategorizeMarket("Will sanctions hit the chip supply chain?")
	if cat != CategoryGeopolitics {
		t.Errorf("got %s, want %s", cat, CategoryGeopolitics)
	}
}

func TestCategorizeDefault(t *testing.T) {
	cat := CategorizeMarket("Will it rain tomorrow?")
	if cat != DefaultCategory {
		t.Errorf("got %s, want default %s", cat, DefaultCategory)
	}
}

func TestCategorizeNoSubstringFalsePositive(t *testing.T) {
	// "software" contains "war" but must classify as tech, not
	// geopolitics.
	cat := CategorizeMarket("Will the software release ship on time?")
	if cat != CategoryTech {
		t.Errorf("got %s, want %s", cat, CategoryTech)
	}
}

func TestShouldExclude(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Who wins the Super Bowl?", true},
		{"NBA finals MVP odds", true},
		{"Box office opening weekend over $100M?", true},
		{"Dogecoin above $1 by December?", true},
		{"Will the ceasefire hold through March?", false},
		{"Fed rate cut in September?", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ShouldExclude(tt.text); got != tt.want {
			t.Errorf("ShouldExclude(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
