package scraper

import (
	"context"
	"time"
)

// MockSource returns a fixed set of sample news articles. It exists so
// ingestion can be exercised end to end without network access or seed
// URLs.
type MockSource struct{}

// NewMockSource creates a MockSource.
func NewMockSource() *MockSource {
	return &MockSource{}
}

// Fetch returns the sample articles. It never fails.
func (*MockSource) Fetch(_ context.Context) ([]Item, error) {
	return sampleArticles(), nil
}

func sampleArticles() []Item {
	day := func(d int) time.Time {
		return time.Date(2025, 5, d, 9, 0, 0, 0, time.UTC)
	}
	return []Item{
		{
			URL:         "https://news.example.com/ai-regulation-framework",
			Title:       "Lawmakers Advance AI Regulation Framework",
			Source:      "Example News",
			PublishedAt: day(2),
			Text: "Legislators advanced a sweeping framework for regulating artificial " +
				"intelligence systems on Tuesday, setting disclosure requirements for " +
				"models deployed in hiring, lending, and healthcare. The bill would " +
				"require companies to document training data provenance and submit " +
				"high-risk systems for independent audits.\n\n" +
				"Industry groups pushed back on the audit provisions, arguing the " +
				"timelines are unworkable for smaller firms. Consumer advocates " +
				"countered that voluntary commitments have failed to curb documented " +
				"harms in automated decision systems.",
		},
		{
			URL:         "https://news.example.com/chip-supply-rebound",
			Title:       "Semiconductor Supply Chains Show Signs of Recovery",
			Source:      "Example News",
			PublishedAt: day(3),
			Text: "Global semiconductor supply chains are stabilizing after two years " +
				"of shortages, with lead times for mature-node chips falling to " +
				"pre-pandemic levels. Analysts credit new fabrication capacity in " +
				"Southeast Asia and softening demand in consumer electronics.\n\n" +
				"Advanced-node capacity remains tight. Foundries report that orders " +
				"for AI accelerators continue to outstrip supply, and packaging " +
				"capacity for high-bandwidth memory is booked through next year.",
		},
		{
			URL:         "https://news.example.com/fusion-milestone",
			Title:       "Fusion Startup Reports Sustained Net-Energy Milestone",
			Source:      "Example News",
			PublishedAt: day(5),
			Text: "A fusion energy startup said its pilot reactor sustained a " +
				"net-energy-positive reaction for over ten minutes, a first for a " +
				"privately funded device. The company published partial data and " +
				"invited independent verification of the results.\n\n" +
				"Physicists welcomed the announcement with caution, noting that " +
				"engineering break-even at the plant level remains years away and " +
				"depends on advances in materials that survive neutron bombardment.",
		},
		{
			URL:         "https://news.example.com/open-source-llm-release",
			Title:       "Research Lab Releases Open-Weight Language Model",
			Source:      "Example News",
			PublishedAt: day(8),
			Text: "A university research lab released the weights of a 70-billion " +
				"parameter language model under a permissive license, along with the " +
				"full training recipe and data filtering pipeline. The release is " +
				"positioned as a reproducibility baseline for academic work.\n\n" +
				"Early benchmarks place the model competitive with commercial systems " +
				"on reasoning tasks, though it trails on multilingual coverage. The " +
				"lab said it deliberately excluded copyrighted book corpora from " +
				"training data.",
		},
	}
}
