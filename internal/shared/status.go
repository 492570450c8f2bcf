package shared

import "strings"

// StatusInfo is the display metadata of a status value.
type StatusInfo struct {
	Label string `json:"label"`
	Class string `json:"class"`
	Icon  string `json:"icon"`
}

// TitleFromCode turns "em_analise_diretoria" into "Em Analise Diretoria".
func TitleFromCode(code string) string {
	words := strings.Fields(strings.ReplaceAll(code, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
