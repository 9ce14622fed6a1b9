package normalize

// UnknownPayType is assigned when no payer enrollment record exists.
const UnknownPayType = "U"

// payTypeDescriptions maps enrollment pay_type codes to their descriptions.
var payTypeDescriptions = map[string]string{
	"A": "Medicare Part C",
	"C": "Commercial",
	"K": "State Children's Health Insurance Program (SCHIP)",
	"M": "Medicaid",
	"R": "Medicare Risk",
	"S": "Self-Insured",
	"T": "Medicare Cost",
	"U": "Unknown/Missing",
	"X": "RX Only",
}

// PayTypeDescription maps a pay_type code to its description. Values that are
// not a known code (including already-mapped descriptions) are returned unchanged.
func PayTypeDescription(code string) string {
	if d, ok := payTypeDescriptions[code]; ok {
		return d
	}
	return code
}
