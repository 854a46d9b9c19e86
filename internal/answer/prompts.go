package answer

import "fmt"

// SystemPrompt instructs the model to answer only from the supplied excerpts.
const SystemPrompt = `You are a helpful assistant that answers questions based on company documents.

Instructions:
- Answer the user's question using ONLY the information in the provided document chunks
- Be concise and direct (2-4 sentences)
- If the documents don't contain enough information, say so
- Write in a natural, conversational tone
- Do NOT make up information not in the documents`

// UserPrompt renders the excerpts and question for the model.
func UserPrompt(context, question string) string {
	return fmt.Sprintf(`Document excerpts:
%s

Question: %s

Provide a clear, concise answer based on the documents above.`, context, question)
}
