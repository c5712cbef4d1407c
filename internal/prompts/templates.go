package prompts

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/avvvet/orderbot/internal/models"
)

const extractionPrompt = `You are the language-understanding component of an order-taking bot. Given one user utterance, decide whether the user wants to place a delivery order and extract the order details.

IMPORTANT RULES:
1. Classify the intent as "PlaceOrder" only when the user is asking for something to be delivered or ordered; otherwise use "None".
2. "deliver" collects every item-like phrase exactly as the user wrote it.
3. "itemList" contains only phrases that name one of the supported items below, reduced to the bare item word.
4. "datetime" is the delivery date in ISO form, as far as the utterance specifies it: "2020-03-22" when fully given, "2020-03" when the day is missing, "XXXX-03-22" when the year is missing. Leave it empty when no date is mentioned.
5. Do not guess values the user never said.

RESPONSE FORMAT:
Respond with a single JSON object in exactly this shape:
{
  "intent": "PlaceOrder or None",
  "entities": {
    "deliver": ["raw phrase"],
    "itemList": ["canonical item"],
    "datetime": "ISO date or empty"
  }
}

Supported items:
%s

Utterance:
%s

Respond with the JSON object only.`

// FallbackMessage is shown when the utterance could not be understood.
const FallbackMessage = "I didn't get that. I can take delivery orders, for example: \"deliver 10 kg rice on March 22\"."

// BuildExtractionPrompt renders the intent-extraction prompt for one utterance.
func BuildExtractionPrompt(utterance string, catalog []string) string {
	var items strings.Builder
	for _, item := range catalog {
		items.WriteString(fmt.Sprintf("- %s\n", item))
	}
	return fmt.Sprintf(extractionPrompt, items.String(), utterance)
}

// ParseExtraction pulls the structured intent out of a raw model response.
func ParseExtraction(content string) (*models.RecognizedIntent, error) {
	jsonContent := extractJSON(content)
	if jsonContent == "" {
		return nil, fmt.Errorf("no valid JSON found in response")
	}

	var intent models.RecognizedIntent
	if err := json.Unmarshal([]byte(jsonContent), &intent); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	if intent.Intent != models.IntentPlaceOrder {
		intent.Intent = models.IntentNone
	}

	return &intent, nil
}

func extractJSON(content string) string {
	start := strings.Index(content, "{")
	if start == -1 {
		return ""
	}

	end := strings.LastIndex(content, "}")
	if end == -1 || end <= start {
		return ""
	}

	return content[start : end+1]
}
