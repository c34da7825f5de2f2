package openai

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/kailas-cloud/arborist/internal/domain/field"
)

// TemplateVersion identifies the instruction text. Bump it whenever the
// template changes so cached translations are not reused across versions.
const TemplateVersion = "v3"

// fieldHints carry the canonical vocabularies of the tree census. Fields
// without a hint are described from their class alone.
var fieldHints = map[string]string{
	"status": "Condition of the tree. MUST be one of these exact values: 'Good', 'Poor', 'Excellent', 'Dead'.",
	"spc_common": "Common species name. MUST follow the 'PRIMARY, VARIETY' format when applicable, case exactly as in the examples.\n" +
		"    - 'pin oak' -> 'OAK, PIN'\n" +
		"    - 'norway maple' -> 'MAPLE, NORWAY'\n" +
		"    - 'callery pear' -> 'PEAR, CALLERY'\n" +
		"    - 'honeylocust' -> 'honeylocust' (single name)\n" +
		"    - 'sycamore' -> 'LONDON PLANETREE' (special case)",
	"boroname":   "Borough name ('Brooklyn', 'Manhattan', 'Bronx', 'Queens', 'Staten Island'). Map 'Staten Island' to value '5'.",
	"zipcode":    "5-digit zip code, as given by the user.",
	"address":    "Street address. Only when a specific address is given.",
	"sidw_crack": "Sidewalk cracking. Map presence/absence to exactly 'Yes'/'No'.",
	"inf_wires":  "Wire conflicts. Map presence/absence to exactly 'Yes'/'No'.",
	"trunk_dmg":  "Trunk damage. Map presence/absence to exactly 'Yes'/'No'.",
	"tree_dbh":   "Trunk diameter in inches. Convert values to numbers.",
}

type promptField struct {
	Name string
	Type string
	Ops  string
	Hint string
}

var instructionsTmpl = template.Must(template.New("instructions").Parse(
	`You translate questions about NYC street trees (census data) into filter criteria.
STRICTLY follow the formatting and value rules below.

Available properties for filtering:
{{range .Fields}}- {{.Name}} ({{.Type}}, operators: {{.Ops}}){{if .Hint}}: {{.Hint}}{{end}}
{{end}}
Rules:
- Extract criteria based only on these properties. Never invent other field names.
- Return a JSON object: {"filters": [{"field": "...", "operator": "...", "value": ...}]}.
- Text and yes/no properties use operator "==" and a string value matching the rules above exactly, including case.
- Numeric properties use one of >, <, >=, <=, == with a numeric value.
{{- if .DefaultNumeric}}
- Assume {{.DefaultNumeric}} > 0 unless the user constrains it.
{{- end}}
- If nothing in the question maps to a property, return {"filters": []}.

Example question: "Show Callery Pear excellent trees smaller than 4 inches diameter"
Example output:
{"filters": [
  {"field": "spc_common", "operator": "==", "value": "PEAR, CALLERY"},
  {"field": "status", "operator": "==", "value": "Excellent"},
  {"field": "tree_dbh", "operator": "<", "value": 4}
]}

Example question: "Map trees with no wire conflicts"
Example output:
{"filters": [{"field": "inf_wires", "operator": "==", "value": "No"}]}
`))

// BuildInstructions renders the system instructions for a schema.
func BuildInstructions(schema field.Schema) (string, error) {
	data := struct {
		Fields         []promptField
		DefaultNumeric string
	}{DefaultNumeric: schema.DefaultNumeric()}

	for _, f := range schema.Fields() {
		pf := promptField{Name: f.Name(), Hint: fieldHints[f.Name()]}
		switch f.Class() {
		case field.NumericRange:
			pf.Type, pf.Ops = "number", ">, <, >=, <=, =="
		case field.BinaryFlag:
			pf.Type, pf.Ops = "yes/no", "=="
		default:
			pf.Type, pf.Ops = "string", "=="
		}
		data.Fields = append(data.Fields, pf)
	}

	var b strings.Builder
	if err := instructionsTmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render instructions: %w", err)
	}
	return b.String(), nil
}
