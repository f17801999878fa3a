package matcher

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/tu-usuario/stockml/internal/domain/entity"
)

// Servicio de dominio puro: empareja títulos libres de publicaciones con
// productos conocidos. Sin estado ni I/O; determinista dado el mismo orden
// de candidatos.

// Umbral mínimo de score para aceptar un candidato por solapamiento de tokens.
const minScore = 0.30

// Bonus cuando el candidato declara tokens de grupo y al menos uno aparece en el título.
const groupBonus = 0.25

// stripMarks elimina las marcas combinantes tras la descomposición de
// compatibilidad (NFKD también reduce ordinales como "º" a letra base).
var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))

// Normalize descompone en NFKD, quita diacríticos, pasa a minúsculas y
// colapsa cada corrida de caracteres no alfanuméricos en un solo espacio.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	decomposed, _, err := transform.String(stripMarks, text)
	if err != nil {
		decomposed = text
	}
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range strings.ToLower(decomposed) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokenize normaliza y parte en tokens, descartando los de largo <= 1.
func Tokenize(text string) []string {
	var tokens []string
	for _, tok := range strings.Fields(Normalize(text)) {
		if len([]rune(tok)) > 1 {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// Candidate es un producto precomputado para el matching.
type Candidate struct {
	Product     *entity.Product
	NameNorm    string
	NameTokens  []string
	GroupTokens []string
}

// BuildIndex precomputa los candidatos a partir de los productos conocidos,
// preservando el orden de entrada.
func BuildIndex(products []*entity.Product) []Candidate {
	index := make([]Candidate, 0, len(products))
	for _, p := range products {
		index = append(index, Candidate{
			Product:     p,
			NameNorm:    Normalize(p.Name),
			NameTokens:  Tokenize(p.Name),
			GroupTokens: Tokenize(p.Group),
		})
	}
	return index
}

// Result es el resultado de un match. Score 1.0 indica coincidencia exacta
// del nombre normalizado como subcadena del título.
type Result struct {
	Product *entity.Product
	Score   float64
}

// Match resuelve el mejor candidato para un título:
//
//  1. Si el candidato declara tokens de grupo y ninguno aparece en el título,
//     queda excluido (el grupo es un filtro duro, no un bonus).
//  2. Si el nombre normalizado del candidato es subcadena del título
//     normalizado, gana de inmediato con score 1.0 (el primero en orden de
//     entrada).
//  3. Si no, score = |tokensTítulo ∩ tokensNombre| / |tokensNombre|, más
//     0.25 si hay tokens de grupo y alguno interseca el título.
//  4. El mejor score se devuelve solo si alcanza 0.30.
//
// Un título sin match es un resultado normal (ok=false), nunca un error:
// la reconciliación parcial debe continuar.
func Match(title string, candidates []Candidate) (Result, bool) {
	titleNorm := Normalize(title)
	titleTokens := make(map[string]struct{})
	for _, tok := range Tokenize(title) {
		titleTokens[tok] = struct{}{}
	}

	var best Result
	for i := range candidates {
		c := &candidates[i]
		if len(c.NameTokens) == 0 {
			continue
		}
		groupHit := false
		if len(c.GroupTokens) > 0 {
			for _, tok := range c.GroupTokens {
				if _, ok := titleTokens[tok]; ok {
					groupHit = true
					break
				}
			}
			if !groupHit {
				continue
			}
		}
		if c.NameNorm != "" && strings.Contains(titleNorm, c.NameNorm) {
			return Result{Product: c.Product, Score: 1.0}, true
		}
		overlap := 0
		for _, tok := range c.NameTokens {
			if _, ok := titleTokens[tok]; ok {
				overlap++
			}
		}
		score := float64(overlap) / float64(len(c.NameTokens))
		if groupHit {
			score += groupBonus
		}
		if score > best.Score {
			best = Result{Product: c.Product, Score: score}
		}
	}
	if best.Product != nil && best.Score >= minScore {
		return best, true
	}
	return Result{}, false
}
