package notify

import (
	"fmt"
	"math"
	"strings"

	"github.com/aluiziolira/ebook-search/models"
)

const searchTimeLayout = "2006/01/02 15:04:05"

// Report renders a finished search as a Markdown message.
func Report(record *models.SearchRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Keywords: *%s*\n", escapeMarkdown(record.Keywords))
	fmt.Fprintf(&b, "Search Time: %s\n", record.SearchDateTime.Format(searchTimeLayout))
	fmt.Fprintf(&b, "Process Time: %gs\n", seconds(record.ProcessTime))
	fmt.Fprintf(&b, "Total: %d\n", record.TotalQuantity)
	ua := ""
	if record.UserAgent != nil {
		ua = record.UserAgent.UA
	}
	fmt.Fprintf(&b, "User Agent: %s\n", escapeMarkdown(ua))
	fmt.Fprintf(&b, "Search ID: `%s`\n", record.ID)
	b.WriteString("Bookstore Result:")
	for _, result := range record.Results {
		mark := "❌"
		if result.IsOkay {
			mark = "✅"
		}
		fmt.Fprintf(&b, "\n%s  %s (%d | %gs)", mark, result.Bookstore.DisplayName, result.Quantity, seconds(result.ProcessTime))
	}
	return b.String()
}

// Failure renders an aggregation defect.
func Failure(keywords string, err error) string {
	return fmt.Sprintf("Search failed\nKeywords: *%s*\nError: %s", escapeMarkdown(keywords), escapeMarkdown(err.Error()))
}

// seconds converts milliseconds to seconds rounded to two decimals.
func seconds(ms float64) float64 {
	return math.Round(ms/1000*100) / 100
}

var markdownEscaper = strings.NewReplacer("*", "\\*", "_", "\\_", "`", "\\`", "[", "\\[")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
