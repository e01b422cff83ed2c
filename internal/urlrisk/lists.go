package urlrisk

// Lists holds the reference lists the checks match against. Values are
// lower-case; the analyzer never modifies them.
type Lists struct {
	SuspiciousTLDs []string
	TrustedDomains []string
	Keywords       []string
	Brands         []string
}

// DefaultLists returns the built-in reference lists
func DefaultLists() Lists {
	return Lists{
		SuspiciousTLDs: []string{
			".xyz", ".top", ".work", ".click", ".loan",
			".download", ".stream", ".racing", ".bid",
		},
		TrustedDomains: []string{
			"google.com", "gmail.com", "facebook.com", "twitter.com",
			"linkedin.com", "amazon.com", "paypal.com", "microsoft.com",
			"apple.com", "github.com",
		},
		Keywords: []string{
			"verify", "account", "suspend", "click", "update", "confirm",
			"login", "secure", "billing", "urgently", "immediately",
		},
		Brands: []string{"paypal", "amazon", "google", "microsoft", "apple", "facebook"},
	}
}

// Override replaces every list that is non-empty in o
func (l Lists) Override(o Lists) Lists {
	if len(o.SuspiciousTLDs) > 0 {
		l.SuspiciousTLDs = o.SuspiciousTLDs
	}
	if len(o.TrustedDomains) > 0 {
		l.TrustedDomains = o.TrustedDomains
	}
	if len(o.Keywords) > 0 {
		l.Keywords = o.Keywords
	}
	if len(o.Brands) > 0 {
		l.Brands = o.Brands
	}
	return l
}
