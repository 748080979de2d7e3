package genai

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// specTmpl is the device spec extraction prompt template.
const specTmpl = `Extract structured attributes for this electronic device from the search snippets.
Respond ONLY with a JSON object matching the schema below.
If a field cannot be determined, use null.

Product: {{.Product}}
Snippets:
{{.Snippets}}

Schema:
{
  "brand": string,
  "model": string,
  "release_year": integer | null,
  "storage_gb": integer | null,
  "attributes": {string: string}
}`

// reportTmpl is the justification prose generation prompt template.
const reportTmpl = `You are a professional technology reviewer writing a used-device valuation report.
Write in {{.LanguageName}} only. Use ONLY the facts listed below; never invent numbers.

Device: {{.Device}}
Recommended price: {{.Price}} {{.Currency}}

Facts, in order:
{{range .Facts}}- {{.}}
{{end}}
Respond ONLY with a JSON object:
{
  "summary": string (one sentence),
  "explanations": [string] (one entry per fact, same order)
}`

var (
	specTemplate   = template.Must(template.New("spec").Parse(specTmpl))
	reportTemplate = template.Must(template.New("report").Parse(reportTmpl))
)

// RenderSpecPrompt renders the spec extraction prompt for a product and its
// search snippets.
func RenderSpecPrompt(product string, snippets []string) (string, error) {
	var buf bytes.Buffer
	err := specTemplate.Execute(&buf, struct {
		Product  string
		Snippets string
	}{
		Product:  product,
		Snippets: strings.Join(snippets, "\n"),
	})
	if err != nil {
		return "", fmt.Errorf("rendering spec prompt: %w", err)
	}
	return buf.String(), nil
}

// RenderReportPrompt renders the report prose prompt from an ordered fact
// list.
func RenderReportPrompt(
	languageName, device, price, currency string,
	facts []string,
) (string, error) {
	var buf bytes.Buffer
	err := reportTemplate.Execute(&buf, struct {
		LanguageName string
		Device       string
		Price        string
		Currency     string
		Facts        []string
	}{
		LanguageName: languageName,
		Device:       device,
		Price:        price,
		Currency:     currency,
		Facts:        facts,
	})
	if err != nil {
		return "", fmt.Errorf("rendering report prompt: %w", err)
	}
	return buf.String(), nil
}
