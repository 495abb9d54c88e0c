package classifier

import "dronepartpicker/scraper/internal/domain"

// Comparison pairs the legacy decision with the enhanced one so
// operators can review reclassification candidates before applying them.
// Legacy classification ignores the URL hint.
type Comparison struct {
	Legacy   domain.Category `json:"legacy"`
	Enhanced Result          `json:"enhanced"`
	Agree    bool            `json:"agree"`
}

func Compare(name, description, url string) Comparison {
	legacy := ClassifyDetailed(name, description, "").Category
	enhanced := ClassifyDetailed(name, description, url)
	return Comparison{
		Legacy:   legacy,
		Enhanced: enhanced,
		Agree:    legacy == enhanced.Category,
	}
}
