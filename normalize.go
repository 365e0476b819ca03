package main

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// A Normalizer reduces free-text answers to a canonical key used only for
// comparison, never for display. Profiles are per-language; the bundled one
// is Brazilian Portuguese.
type Normalizer interface {
	Normalize(text string) string
}

var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func stripDiacritics(s string) string {
	out, _, err := transform.String(diacriticStripper, s)
	if err != nil {
		return s
	}
	return out
}

type languageProfile struct {
	stopwords map[string]struct{}
	synonyms  map[string]string
	stem      func(string) string
}

// Normalize lowercases, strips diacritics, tokenizes, drops stopwords,
// canonicalizes synonyms, stems, then sorts and joins the tokens. Sorting
// tolerates word-order variation in short phrasal answers.
func (lp *languageProfile) Normalize(text string) string {
	lowered := strings.TrimSpace(stripDiacritics(strings.ToLower(text)))

	tokens := strings.FieldsFunc(lowered, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	kept := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, skip := lp.stopwords[token]; skip {
			continue
		}
		if canonical, ok := lp.synonyms[token]; ok {
			token = canonical
		}
		kept = append(kept, lp.stem(token))
	}

	sort.Strings(kept)

	return strings.Join(kept, " ")
}

func (lp *languageProfile) addSynonyms(canonical string, synonyms ...string) {
	target := stripDiacritics(strings.ToLower(canonical))
	for _, synonym := range synonyms {
		lp.synonyms[stripDiacritics(strings.ToLower(synonym))] = target
	}
}

// newPortugueseNormalizer builds the pt-BR profile: the stopword list and
// synonym table the game ships with, plus a conservative suffix-stripping
// stemmer so inflected forms ("batata"/"batatas", "limpeza"/"limpezas")
// collapse to one key.
func newPortugueseNormalizer() Normalizer {
	lp := &languageProfile{
		stopwords: make(map[string]struct{}),
		synonyms:  make(map[string]string),
		stem:      stemPortuguese,
	}

	for _, word := range []string{
		"a", "o", "as", "os", "um", "uma", "uns", "umas",
		"de", "do", "da", "dos", "das", "em", "no", "na", "nos", "nas",
		"e", "ou", "mas", "que", "se", "por", "pra", "para", "com", "sem",
		"meu", "minha", "seu", "sua", "nosso", "nossa",
		"muito", "muita", "pouco", "pouca", "bom", "boa", "ruim",
		"grande", "pequeno", "ser", "estar", "ter", "fazer",
		"eu", "tu", "ele", "ela", "nós", "vós", "eles", "elas",
	} {
		lp.stopwords[stripDiacritics(word)] = struct{}{}
	}

	lp.addSynonyms("limpeza", "faxina", "asseio", "higienização")
	lp.addSynonyms("dinheiro", "grana", "bufunfa", "tostão", "verba")
	lp.addSynonyms("comida", "rango", "refeição", "alimento")
	lp.addSynonyms("trabalho", "emprego", "trampo", "serviço", "labuta")
	lp.addSynonyms("carro", "automóvel", "veículo", "possante")
	lp.addSynonyms("celular", "smartphone", "telemóvel", "zap")
	lp.addSynonyms("feliz", "alegre", "contente", "satisfeito")
	lp.addSynonyms("triste", "chateado", "infeliz", "melancólico")

	return lp
}

var nounSuffixes = []string{
	"amento", "imento", "adora", "mente", "idade", "ador", "acao", "ismo", "ista", "eza", "oso", "osa",
}

// stemPortuguese is a reduced Portuguese suffix stripper. It operates on
// lowercase, diacritic-free tokens; each step keeps a minimum stem length so
// short words survive unchanged.
func stemPortuguese(word string) string {
	// plural
	if strings.HasSuffix(word, "ns") {
		word = word[:len(word)-2] + "m"
	} else if strings.HasSuffix(word, "s") && len(word) > 3 {
		word = word[:len(word)-1]
	}

	// diminutive
	for _, suffix := range []string{"zinho", "zinha", "inho", "inha"} {
		if strings.HasSuffix(word, suffix) && len(word)-len(suffix) >= 3 {
			word = word[:len(word)-len(suffix)]
			break
		}
	}

	// noun/adjective suffixes
	for _, suffix := range nounSuffixes {
		if strings.HasSuffix(word, suffix) && len(word)-len(suffix) >= 3 {
			word = word[:len(word)-len(suffix)]
			break
		}
	}

	// verb infinitives
	for _, suffix := range []string{"ar", "er", "ir"} {
		if strings.HasSuffix(word, suffix) && len(word)-len(suffix) >= 3 {
			word = word[:len(word)-len(suffix)]
			break
		}
	}

	// final theme vowel
	if len(word) > 3 {
		switch word[len(word)-1] {
		case 'a', 'e', 'o':
			word = word[:len(word)-1]
		}
	}

	return word
}
