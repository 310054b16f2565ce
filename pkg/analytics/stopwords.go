package analytics

import "strings"

// stopwordLists holds common function words per language (ISO 639-1).
// Apostrophe contractions are left out: the tokenizer splits on them.
var stopwordLists = map[string]string{
	"en": `
		a about above after again against all also am an and any are as at
		be because been before being below between both but by
		can cannot could did do does doing done down during
		each either else enough etc even ever every
		few for from further
		had has have having he hence her here hers herself him himself his how however
		i if in into is it its itself just
		least less let like
		made many may me might more most much must my myself
		neither never no nor not nothing now
		of off often on once one only onto or other others our ours ourselves out over own
		per perhaps rather same she should since so some still such
		than that the their theirs them themselves then there therefore these they this those
		through thus to too toward towards
		under until up upon us
		very via
		was we were what when where whether which while who whom whose why with within without would
		yet you your yours yourself yourselves
		s t d ll m re ve`,
	"uk": `
		а аби або адже але б би бо був була були було бути в вам вас ви від він вона вони воно все
		всі втім де для до же з за зі і із її їх й як який яка яке які якщо
		ми мене мені не ні на над нам нас навіть наш неї нього них о об однак от по під при про
		та так також там те теж то тобто того тому ти у ще що щоб це цей ця ці цього цих цьому цю
		я`,
}

var stopwords = buildStopwords()

func buildStopwords() map[string]struct{} {
	set := make(map[string]struct{})
	for _, list := range stopwordLists {
		for _, w := range strings.Fields(list) {
			set[w] = struct{}{}
		}
	}
	return set
}

// IsStopword checks if a word is a common stopword that should be left out of rankings.
func IsStopword(word string) bool {
	_, exists := stopwords[strings.ToLower(word)]
	return exists
}
