package intel

import (
	"fmt"
	"strings"

	"github.com/keepsake-ai/keepsake/internal/model"
)

func intentPrompt(utterance string) string {
	return fmt.Sprintf(`
You are a detector for memory-related queries.

Analyze this query to determine if it's:
1. Searching for stored memory
2. Trying to update/correct a stored memory
3. Trying to delete a stored memory
4. Just a regular conversation or sharing new information

If it's a search query, respond with:
{ "intent": "search", "search_term": "..." }

If it's an update query, respond with:
{ "intent": "update", "search_term": "...", "new_value": "..." }

If it's a delete query, respond with:
{ "intent": "delete", "search_term": "..." }

Otherwise (regular conversation/sharing):
{ "intent": "conversation" }

Examples:
- "What's my dog's name?" -> { "intent": "search", "search_term": "dog name" }
- "My dog's name is not Rex, it's Max" -> { "intent": "update", "search_term": "dog name", "new_value": "Max" }
- "Change my favorite color from blue to red" -> { "intent": "update", "search_term": "favorite color", "new_value": "red" }
- "Delete what I told you about my job" -> { "intent": "delete", "search_term": "job" }
- "I like pizza" -> { "intent": "conversation" }

IMPORTANT: Always extract the correct search terms and new values for proper memory operations.
For updates, correctly identify both what needs to be searched for and the new value to replace it with.

User message: %q
`, utterance)
}

func extractionPrompt(utterance string) string {
	return fmt.Sprintf(`
You are an AI assistant that helps store personal information the user shares.
Analyze this message and determine if there's any personal information to remember:

%q

Reply in JSON format:
{
  "reply": "Your friendly response to the user",
  "store": true/false,
  "memory": "The exact fact to store (only if store=true)"
}

Examples:
- If user says "My birthday is May 5th":
  { "reply": "I'll remember that your birthday is May 5th!", "store": true, "memory": "User's birthday is May 5th" }
- If user says "I like pizza":
  { "reply": "Thanks for letting me know you enjoy pizza!", "store": true, "memory": "User likes pizza" }
- If user says "How are you today?":
  { "reply": "I'm doing well, thanks for asking! How are you?", "store": false }

Always capture personal information, preferences, dates, names, and facts.
IMPORTANT: For dates, include the full date in the memory. Don't convert dates to a format that might cause "Invalid Date" errors.
`, utterance)
}

func composePrompt(facts []model.RankedFact, question string) string {
	var lines []string
	for i, f := range facts {
		date := f.FormattedDate
		if date == "" {
			date = f.MemoryDate
		}
		lines = append(lines, fmt.Sprintf("%d. [Score: %d] %q (from %s)", i+1, f.MatchCount, f.Text, date))
	}

	return fmt.Sprintf(`
You are a personal memory assistant that helps recall stored information.

A user asked: %q

Here are stored memory facts that match their question, ranked by relevance score (higher is better):
%s

Only use these facts to answer the question. Do NOT guess or assume.
If none of the facts directly answer the question, respond with: "I have some information that might be related, but I don't have a specific answer to your question."

Your response should be:
1. Accurate - only use the information in the memories
2. Concise - respond in 1-2 sentences
3. Helpful - prioritize information from higher-scored memories
4. Confident - when a clear answer exists in a high-scoring memory

IMPORTANT: If the memories contain any dates, leave them exactly as they appear (don't try to reformat or make them more specific).
`, question, strings.Join(lines, "\n"))
}

// composer system message, kept separate from the fact payload.
const composeSystem = "You are a helpful assistant that summarizes stored memories."
