package marketplace

// Code identifies an external marketplace
type Code string

const (
	// CodeTrendyol represents the Trendyol marketplace
	CodeTrendyol Code = "TRENDYOL"
	// CodeHepsiburada represents the Hepsiburada marketplace
	CodeHepsiburada Code = "HEPSIBURADA"
	// CodeN11 represents the N11 marketplace
	CodeN11 Code = "N11"
	// CodeAmazon represents the Amazon marketplace
	CodeAmazon Code = "AMAZON"
)

// IsValid returns true if the marketplace code is valid
func (c Code) IsValid() bool {
	switch c {
	case CodeTrendyol, CodeHepsiburada, CodeN11, CodeAmazon:
		return true
	default:
		return false
	}
}

// String returns the string representation of Code
func (c Code) String() string {
	return string(c)
}

// DisplayName returns a human-readable name for the marketplace
func (c Code) DisplayName() string {
	switch c {
	case CodeTrendyol:
		return "Trendyol"
	case CodeHepsiburada:
		return "Hepsiburada"
	case CodeN11:
		return "N11"
	case CodeAmazon:
		return "Amazon"
	default:
		return string(c)
	}
}

// AllCodes returns all known marketplace codes
func AllCodes() []Code {
	return []Code{CodeTrendyol, CodeHepsiburada, CodeN11, CodeAmazon}
}
