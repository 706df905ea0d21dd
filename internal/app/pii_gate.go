package app

import (
	"fmt"
	"sort"

	"knowledge-governance/internal/model"
)

type PIIQuestion struct {
	Code string `json:"code"`
	Text string `json:"text"`
}

// PIIQuestions is the fixed questionnaire. Order is the order positives are reported in.
var PIIQuestions = []PIIQuestion{
	{Code: "full_name", Text: "Does the file contain a private individual's full name?"},
	{Code: "personal_email", Text: "Does the file contain a personal email address?"},
	{Code: "personal_phone", Text: "Does the file contain a personal phone number?"},
	{Code: "home_address", Text: "Does the file contain a home address?"},
	{Code: "national_id", Text: "Does the file contain a national ID, passport or tax number?"},
	{Code: "personal_financial_data", Text: "Does the file contain bank, card or salary data of a person?"},
	{Code: "portrait_photo", Text: "Does the file contain an identifiable photo of a person without a release?"},
	{Code: "health_data", Text: "Does the file contain health or medical data?"},
	{Code: "signed_contract_identity", Text: "Does the file contain signatures or identities from signed contracts?"},
	{Code: "other_identifying_data", Text: "Does the file contain any other data that identifies a private person?"},
}

type PIIGate struct{}

// Evaluate requires an answer to every question. Any yes blocks the document.
func (PIIGate) Evaluate(answers map[string]bool) (model.PIIOutcome, []string, error) {
	known := make(map[string]struct{}, len(PIIQuestions))
	var missing []string
	for _, q := range PIIQuestions {
		known[q.Code] = struct{}{}
		if _, ok := answers[q.Code]; !ok {
			missing = append(missing, q.Code)
		}
	}
	var unknown []string
	for code := range answers {
		if _, ok := known[code]; !ok {
			unknown = append(unknown, code)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return "", nil, validationErr(fmt.Sprintf("unknown pii question codes: %v", unknown), unknown...)
	}
	if len(missing) > 0 {
		return "", nil, validationErr("every pii question must be answered", missing...)
	}

	var positives []string
	for _, q := range PIIQuestions {
		if answers[q.Code] {
			positives = append(positives, q.Code)
		}
	}
	if len(positives) > 0 {
		return model.PIIBlocked, positives, nil
	}
	return model.PIIClear, nil, nil
}
