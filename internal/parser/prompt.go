package parser

import (
	"regexp"
	"strings"
)

// promptTemplate is sent verbatim, followed by the user's bonus text.
const promptTemplate = `You are a specialized parser that converts bank account bonus descriptions into structured JSON format. Your task is to carefully analyze the provided text and extract key information about bank bonuses.

VERY IMPORTANT: Output ONLY the raw JSON object with no explanation, no markdown formatting, no backticks, and no "json" label. The response should start with "{" and end with "}" with nothing before or after.

The JSON must conform to this schema:
{
  "type": "object",
  "required": ["bankName", "accountType", "amount", "requirements"],
  "properties": {
    "bankName": {
      "type": "string",
      "description": "Name of the bank offering the bonus"
    },
    "accountType": {
      "type": "string",
      "enum": ["Checking", "Savings", "Money Market"],
      "description": "Type of account eligible for the bonus"
    },
    "amount": {
      "type": "number",
      "description": "Bonus amount offered"
    },
    "requirements": {
      "type": "object",
      "required": ["deposits", "timeFrame"],
      "properties": {
        "deposits": {
          "type": "object",
          "required": ["type"],
          "properties": {
            "type": {
              "type": "string",
              "enum": ["total", "each", "both"],
              "description": "Type of deposit requirement - total sum, each deposit amount, or both"
            },
            "totalAmount": {
              "type": "number",
              "description": "Required total deposit amount"
            },
            "eachAmount": {
              "type": "number",
              "description": "Required amount for each deposit"
            },
            "count": {
              "type": "number",
              "description": "Number of required deposits"
            }
          },
          "allOf": [
            {
              "if": { "properties": { "type": { "const": "total" } } },
              "then": { "required": ["totalAmount"] }
            },
            {
              "if": { "properties": { "type": { "const": "each" } } },
              "then": { "required": ["eachAmount", "count"] }
            },
            {
              "if": { "properties": { "type": { "const": "both" } } },
              "then": { "required": ["totalAmount", "eachAmount", "count"] }
            }
          ]
        },
        "timeFrame": {
          "type": "number",
          "description": "Time frame in days to meet the deposit requirements"
        },
        "holdPeriod": {
          "type": "number",
          "description": "Optional period in days the funds must be held in the account"
        }
      }
    }
  }
}

Rules for parsing:
1. Deposit requirements:
   - Use "total" when only a total amount is required
   - Use "each" when individual deposit amounts are specified
   - Use "both" when both total and individual deposit requirements exist
2. Convert all time periods to days (e.g., 3 months = 90 days)
3. For multiple bonus tiers, use the highest bonus amount and its corresponding requirements
4. Remove any currency symbols from numerical values
5. Include holdPeriod only if there is a specific early termination fee period
6. All numbers should be plain numbers without quotes, commas, or currency symbols

Bank bonus description to parse:

`

// BuildPrompt appends text to the parsing instructions.
func BuildPrompt(text string) string {
	return promptTemplate + text
}

var fenceRe = regexp.MustCompile("```(?:json)?\n?")

// cleanJSONResponse strips markdown code fences and surrounding whitespace.
// ok is false when what remains is not a single {...} object.
func cleanJSONResponse(raw string) (cleaned string, ok bool) {
	cleaned = strings.TrimSpace(fenceRe.ReplaceAllString(raw, ""))
	if !strings.HasPrefix(cleaned, "{") || !strings.HasSuffix(cleaned, "}") {
		return cleaned, false
	}
	return cleaned, true
}
