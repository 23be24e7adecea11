package model

// Lead says which side was ahead after an event.
type Lead string

const (
	LeadHome    Lead = "home"
	LeadVisitor Lead = "visitor"
	LeadTied    Lead = "tied"
)

// LeadFromMargin classifies a home-minus-visitor margin.
func LeadFromMargin(margin int) Lead {
	switch {
	case margin > 0:
		return LeadHome
	case margin < 0:
		return LeadVisitor
	default:
		return LeadTied
	}
}

// ResultRow is one ranked answer row, ready for narration.
type ResultRow struct {
	Game    string `json:"game"`
	Period  int    `json:"period"`
	SecLeft int    `json:"sec_left"`
	Scorer  string `json:"scorer"`
	Score   Score  `json:"score"`
	Margin  int    `json:"margin"`
	Desc    string `json:"desc"`
	Lead    Lead   `json:"lead"`
	Role    Role   `json:"role,omitempty"`
}
