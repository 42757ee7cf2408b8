package ai

// Promotion detection prompt. The response must follow a fixed two-line
// format so it can be parsed without asking the model for JSON; extra
// commentary lines are ignored by the parser.
const promoDetectionPrompt = `Analise o seguinte conteúdo de texto e identifique se ele contém informações sobre: %s.
Por favor, retorne TRUE se houver tal promoção e FALSE caso contrário.
Se a promoção for encontrada, forneça também um breve sumário dos principais detalhes da promoção (por exemplo, período da promoção, bônus percentual, condições).

Conteúdo do texto:
---
%s
---

Formato da resposta esperado:
Booleano: [TRUE/FALSE]
Sumário: [Sumário da promoção, se TRUE. Caso contrário, 'N/A']`

// Recognized line prefixes in the model response
const (
	booleanLinePrefix = "Booleano:"
	summaryLinePrefix = "Sumário:"
)

// noSummary is the fixed marker used when the summary line is absent
const noSummary = "N/A"
