package triage

var baseEvidence = []string{
	"Screenshot of fraudulent transaction(s)",
	"Bank statement showing debit (last 7 days)",
	"Any communication with scammer (SMS, WhatsApp, email)",
}

var categoryEvidence = map[string][]string{
	"DIGITAL_ARREST": {
		"Call recording if available",
		"Screenshot of video call if taken",
		"Note the phone number that called you",
	},
	"UPI_FRAUD": {
		"UPI transaction ID/reference number",
		"Screenshot of UPI app showing transaction",
		"QR code image if scanned",
	},
	"OTP_SCAM": {
		"SMS showing OTP request",
		"Screenshot of fake website/link if clicked",
		"Bank alert SMS",
	},
	"REMOTE_APP": {
		"Name of app installed (AnyDesk, TeamViewer, etc.)",
		"Do NOT uninstall the app yet",
		"Screenshot of app showing connection ID",
	},
	"LOAN_APP": {
		"App name and download source",
		"Screenshots of harassment messages",
		"Loan agreement/terms if available",
	},
	"INVESTMENT_FRAUD": {
		"Investment app/website details",
		"Screenshots of promised returns",
		"All transaction receipts",
	},
}

// EvidenceChecklist returns the base checklist followed by any
// category-specific items.
func EvidenceChecklist(categoryID string) []string {
	list := make([]string, 0, len(baseEvidence)+3)
	list = append(list, baseEvidence...)
	return append(list, categoryEvidence[categoryID]...)
}
