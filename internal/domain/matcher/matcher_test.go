package matcher_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/stockml/internal/domain/entity"
	"github.com/tu-usuario/stockml/internal/domain/matcher"
)

func producto(id, name, group string) *entity.Product {
	return &entity.Product{ID: id, Name: name, Group: group}
}

func TestNormalize_QuitaDiacriticosYPuntuacion(t *testing.T) {
	assert.Equal(t, "serum no1", matcher.Normalize("Sérum Nº1"))
	assert.Equal(t, "shampoo anticaida 500ml", matcher.Normalize("  Shampoo Anti-Caída (500ml)!! "))
	assert.Equal(t, "", matcher.Normalize(""))
	assert.Equal(t, "", matcher.Normalize("¡¿---!?"))
}

func TestTokenize_DescartaTokensCortos(t *testing.T) {
	tokens := matcher.Tokenize("Crema X de Niños Nº 2")
	// "x", "nº" (→ "no") y "2" quedan fuera por largo <= 1 solo en el caso de
	// un carácter; "de" y "no" tienen dos y se conservan.
	assert.Equal(t, []string{"crema", "de", "ninos", "no"}, tokens)
}

func TestMatch_SubcadenaExactaGanaSiempre(t *testing.T) {
	candidatos := matcher.BuildIndex([]*entity.Product{
		producto("p1", "Shampoo Loreal Profesional Keratina", ""), // mucho solapamiento
		producto("p2", "Shampoo Loreal", ""),                      // subcadena exacta
	})
	res, ok := matcher.Match("Shampoo Lóreal keratina x500", candidatos)
	require.True(t, ok)
	// La coincidencia por subcadena (p2) gana sobre cualquier solapamiento de tokens.
	assert.Equal(t, "p2", res.Product.ID)
	assert.Equal(t, 1.0, res.Score)
}

func TestMatch_PrimeraSubcadenaEnOrdenDeEntrada(t *testing.T) {
	candidatos := matcher.BuildIndex([]*entity.Product{
		producto("a", "Cera Mate", ""),
		producto("b", "Cera Mate", ""),
	})
	res, ok := matcher.Match("Cera mate fijación fuerte", candidatos)
	require.True(t, ok)
	assert.Equal(t, "a", res.Product.ID)
}

func TestMatch_GrupoActuaComoFiltroDuro(t *testing.T) {
	candidatos := matcher.BuildIndex([]*entity.Product{
		producto("p1", "Acondicionador Reparador", "Pantene"),
	})
	// El título comparte tokens del nombre pero no menciona el grupo: excluido.
	_, ok := matcher.Match("Acondicionador reparador profesional", candidatos)
	assert.False(t, ok)

	// Con el grupo presente el candidato vuelve a competir.
	res, ok := matcher.Match("Acondicionador reparador Pantene", candidatos)
	require.True(t, ok)
	assert.Equal(t, "p1", res.Product.ID)
}

func TestMatch_BonusDeGrupoSumaAlScore(t *testing.T) {
	candidatos := matcher.BuildIndex([]*entity.Product{
		producto("p1", "Tintura Rubio Ceniza Intenso Premium", "Issue"),
	})
	// 2 de 5 tokens del nombre (0.40) + 0.25 de bonus de grupo = 0.65.
	res, ok := matcher.Match("Tintura Issue coloración rubio", candidatos)
	require.True(t, ok)
	assert.InDelta(t, 0.65, res.Score, 0.0001)
}

func TestMatch_ScoreBajoUmbralNoMatchea(t *testing.T) {
	candidatos := matcher.BuildIndex([]*entity.Product{
		producto("p1", "Mascara Nutritiva Argan Coco Karite", ""),
	})
	// 1 de 5 tokens del nombre = 0.20 < 0.30: sin match.
	_, ok := matcher.Match("Promo argan shampoo", candidatos)
	assert.False(t, ok)
}

func TestMatch_UmbralExactoAcepta(t *testing.T) {
	candidatos := matcher.BuildIndex([]*entity.Product{
		producto("p1", "Gel Fijador Extra Fuerte 250ml Profesional Azul Clasico Brillo Natural", ""),
	})
	// 3 de 10 tokens = 0.30: justo en el umbral, acepta.
	res, ok := matcher.Match("Gel fijador fuerte marca generica", candidatos)
	require.True(t, ok)
	assert.InDelta(t, 0.30, res.Score, 0.0001)
}

func TestMatch_SinCandidatosNiTokens(t *testing.T) {
	_, ok := matcher.Match("Cualquier título", nil)
	assert.False(t, ok)

	// Candidato sin tokens de nombre nunca participa.
	candidatos := matcher.BuildIndex([]*entity.Product{producto("p1", "!", "")})
	_, ok = matcher.Match("Cualquier título", candidatos)
	assert.False(t, ok)
}

func TestMatch_DeterministaConMismoOrden(t *testing.T) {
	candidatos := matcher.BuildIndex([]*entity.Product{
		producto("p1", "Crema Peinar Rulos", ""),
		producto("p2", "Crema Peinar Lisos", ""),
	})
	r1, ok1 := matcher.Match("Crema para peinar rulos definidos", candidatos)
	r2, ok2 := matcher.Match("Crema para peinar rulos definidos", candidatos)
	require.True(t, ok1)
	require.True(t, ok2)
	assert.Equal(t, r1.Product.ID, r2.Product.ID)
	assert.Equal(t, r1.Score, r2.Score)
}
