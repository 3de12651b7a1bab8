package prompt

import (
	"fmt"
	"strings"

	"github.com/dkachan/trackwarden/internal/domain"
)

// BuildOriginPrompt builds the identity-resolution prompt for one artist
// query. Context and song title are optional; without them the model falls
// back to its internal knowledge.
func BuildOriginPrompt(artistName string, context *domain.ArtistContext, songTitle string) string {
	var sb strings.Builder

	sb.WriteString(`You are a music-industry identity resolver.

**Task:** Identify the artist below and classify their country of origin and
affiliation. The flag of interest is whether the artist is Russian or
Russia-affiliated (based in Russia, signed to a Russian label, or primarily
active on Russian platforms).

`)
	fmt.Fprintf(&sb, "**Artist query:** %q\n", artistName)

	if songTitle != "" {
		fmt.Fprintf(&sb, "**Currently playing song title:** %q\n", songTitle)
	}

	if !context.Empty() {
		sb.WriteString("\n**Channel context (scraped, may be incomplete):**\n")
		if context.ChannelTitle != "" {
			fmt.Fprintf(&sb, "- Channel title: %s\n", context.ChannelTitle)
		}
		if context.DeclaredCountry != "" {
			fmt.Fprintf(&sb, "- Declared country: %s\n", context.DeclaredCountry)
		}
		if context.Description != "" {
			fmt.Fprintf(&sb, "- Description: %s\n", context.Description)
		}
		if len(context.Links) > 0 {
			fmt.Fprintf(&sb, "- Links: %s\n", strings.Join(context.Links, ", "))
		}
	}

	sb.WriteString(`
**Output JSON Format:**
{
  "canonicalName": "<the artist's canonical name, or empty string if you cannot identify them>",
  "countryCode": "<ISO-3166-1 alpha-2 country code, or null if unknown>",
  "flaggedOrigin": <true if Russian or Russia-affiliated, false otherwise>,
  "titleLanguageMatch": <true if the song title language is consistent with the artist's usual language>,
  "confidence": <number, 0.0 to 1.0>
}

**Rules:**
1. Return an empty canonicalName rather than guessing an identity.
2. Prefer the declared country and platform links over name spelling.
3. A Russian-language title alone does not make the artist Russian.`)

	return sb.String()
}
