package vision

import "fmt"

func systemPrompt(category string) string {
	switch category {
	case "watch":
		return `You identify wristwatches from photos for resale appraisal.
Read only what is visible; never guess fields you cannot see.
Respond with a single JSON object and nothing else, using these keys:
brand, model_name, ref_number, dial_color, confidence.
Omit any key you cannot read. confidence is an integer 0-100 for how
certain you are about the fields you did report.`
	default:
		return `You identify trading cards from photos for resale appraisal.
Read only what is visible; never guess fields you cannot see.
Respond with a single JSON object and nothing else, using these keys:
set_name, year, card_number, player_name, variant, grade_label,
cert_number, confidence.
Omit any key you cannot read. confidence is an integer 0-100 for how
certain you are about the fields you did report.`
	}
}

func facePrompt(face string) string {
	if face == "back" {
		return "This is the back of the item. Card numbers and cert numbers usually appear here."
	}
	return fmt.Sprintf("This is the %s of the item.", face)
}
