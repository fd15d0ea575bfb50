// This file holds the ordered pattern tables. Each field (series, volume,
// chapter, edition) is extracted by running its table top to bottom; the first
// rule whose named group captures something wins. Order matters: specific
// shapes sit above the generic fallbacks that would otherwise swallow them.

package parser

import (
	"time"

	"github.com/dlclark/regexp2"
)

const matchTimeout = 500 * time.Millisecond

// Field names the token a rule extracts.
type Field string

const (
	FieldSeries  Field = "Series"
	FieldVolume  Field = "Volume"
	FieldChapter Field = "Chapter"
	FieldEdition Field = "Edition"
)

// Rule is one entry of a profile table.
type Rule struct {
	Field    Field
	Priority int
	// Example is a filename this rule was written for.
	Example string
	pattern *regexp2.Regexp
}

type ruleSpec struct {
	example string
	pattern string
}

func mustRule(pattern string) *regexp2.Regexp {
	re := regexp2.MustCompile(pattern, regexp2.IgnoreCase)
	re.MatchTimeout = matchTimeout
	return re
}

func table(field Field, specs ...ruleSpec) []Rule {
	rules := make([]Rule, len(specs))
	for i, s := range specs {
		rules[i] = Rule{
			Field:    field,
			Priority: i,
			Example:  s.example,
			pattern:  mustRule(s.pattern),
		}
	}
	return rules
}

// Match runs the rule against s and returns the captured token. A match whose
// named group is empty counts as no match, and so does a timeout.
func (r Rule) Match(s string) (value string, hasPart bool, ok bool) {
	m, err := r.pattern.FindStringMatch(s)
	for err == nil && m != nil {
		if g := m.GroupByName(string(r.Field)); g != nil && len(g.Captures) > 0 && g.String() != "" {
			part := m.GroupByName("Part")
			return g.String(), part != nil && len(part.Captures) > 0 && part.String() != "", true
		}
		m, err = r.pattern.FindNextMatch(m)
	}
	return "", false, false
}

// firstMatch runs a table and reports the first capture.
func firstMatch(rules []Rule, s string) (value string, hasPart bool, ok bool) {
	for _, r := range rules {
		if value, hasPart, ok = r.Match(s); ok {
			return value, hasPart, true
		}
	}
	return "", false, false
}

func matches(re *regexp2.Regexp, s string) bool {
	ok, err := re.MatchString(s)
	return err == nil && ok
}

func replaceAll(re *regexp2.Regexp, s, repl string) string {
	out, err := re.Replace(s, repl, -1, -1)
	if err != nil {
		return s
	}
	return out
}

// Shared by every profile: CJK, Korean, Russian and Thai volume markers.
var nonLatinVolumeRules = []ruleSpec{
	{"สยามเล่ม 2", `(เล่ม|เล่มที่)(\s)?(\.?)(\s|_)?(?<Volume>\d+(\-\d+)?(\.\d+)?)`},
	{"幽游白书完全版 第03卷 天下", `第(?<Volume>\d+)(卷|册)`},
	{"阿衰online 卷1", `(卷|册)(?<Volume>\d+)`},
	{"몰?루 제2권", `제?(?<Volume>\d+(\.\d+)?)권`},
	{"학교생활 시즌2", `시즌(?<Volume>\d+(\-\d+)?)`},
	{"학교생활 2시즌", `(?<Volume>\d+(\-\d+)?)시즌`},
	{"スライム倒して300年 5巻", `(?<Volume>\d+(?:(\-)\d+)?)巻`},
	{"Kebab Том 1 Глава 3", `Том(а?)(\.?)(\s|_)?(?<Volume>\d+(?:(\-)\d+)?)`},
	{"Манга 2 Тома 1", `(\s|_)?(?<Volume>\d+(?:(\-)\d+)?)(\s|_)Том(а?)`},
}

var nonLatinChapterRules = []ruleSpec{
	{"Kebab Том 1 Глава 3", `(Глава|глава|Главы)(\.?)(\s|_)?(?<Chapter>\d+(?:\.\d+|-\d+)?)`},
	{"Манга Тома 1 2 Глава", `(?!Том)(?<!Том\.)\s\d+(\s|_)?(?<Chapter>\d+(?:\.\d+|-\d+)?)(\s|_)(Глава|глава|Главы)`},
	{"Манга 5 Глава", `(?<Chapter>\d+)(?:\s|_)?(Глава|глава|Главы)`},
	{"不安的种子 第27话", `第(?<Chapter>\d+)(话|話|回)`},
	{"異世界居酒屋「のぶ」 12話", `(?<Chapter>\d+(?:\.\d+|-\d+)?)(話|话)`},
	{"가디언즈 오브 갤럭시 3화", `제?(?<Chapter>\d+(\.\d+)?)(화|장)`},
}

var nonLatinSeriesRules = []ruleSpec{
	{"สยามเล่ม 2", `(?<Series>.+?)(เล่ม|เล่มที่)(\s)?(\.?)(\s|_)?(?<Volume>\d+(\-\d+)?(\.\d+)?)`},
	{"Kebab Том 1 Глава 3", `(?<Series>.+?)Том(а?)(\.?)(\s|_)?(?<Volume>\d+(?:(\-)\d+)?)`},
	{"Манга 2 Тома 1", `(?<Series>.+?)(\s|_)?(?<Volume>\d+(?:(\-)\d+)?)(\s|_)Том(а?)`},
	{"Манга Глава 1", `(?<Series>.+?)(\s|_)(Глава|глава|Главы)(\.?)(\s|_)?\d+`},
	{"幽游白书完全版 第03卷 天下", `(?<Series>.+?)(\s|_)?第(\d+)(卷|册)`},
	{"スライム倒して300年 5巻", `(?<Series>.+?)(\s|_)(\d+)巻`},
	{"학교생활 시즌2", `(?<Series>.+?)(\s|_)?(\d+)?시즌`},
	{"몰?루 제2권", `(?<Series>.+?)(\s|_)?(제)?(\d+)(권|화)`},
	{"不安的种子 第27话", `(?<Series>.+?)(\s|_)?第?(\d+)(话|話|回)`},
}

func join(groups ...[]ruleSpec) []ruleSpec {
	var out []ruleSpec
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

var mangaVolumeRules = table(FieldVolume, join([]ruleSpec{
	{"Dance in the Vampire Bund v16-17 ", `(?<Series>.*)(\b|_)v(?<Volume>\d+-?\d+)( |_)`},
	{"NEEDLESS_Vol.4_-Simeon_6_v2[SugoiSugoi]", `(?<Series>.*)(\b|_)(?!\[)(vol\.?)(?<Volume>\d+(-\d+)?)(?!\])`},
	{"Kasumi_Otoko_no_Ko_[Taruby]_v1.1", `(?<Series>.*)(\b|_)(?!\[)v(?<Volume>\d+(\.\d+)?(-\d+(\.\d+)?)?)(?!\])`},
	{"Killing Bites Vol. 0001 Ch. 0001", `(?<Series>.*)(\b|_)(vol\.? ?)(?<Volume>\d+(\.\d+)?(-\d+)?(\.\d+)?)`},
	{"Tonikaku Cawaii [Volume 11]", `(volume )(?<Volume>\d+(\.\d+)?)`},
	{"Tower Of God S01 014", `(?<Series>.*)(\b|_)(S(?<Volume>\d+))`},
	{"vol_356-1", `(vol_)(?<Volume>\d+(\.\d+)?)`},
}, nonLatinVolumeRules)...)

var mangaChapterRules = table(FieldChapter, join([]ruleSpec{
	{"Mujaki no Rakuen Vol12 ch76", `(\b|_)(c|ch)(\.?\s?)(?<Chapter>(\d+(\.\d)?)(-c?\d+(\.\d)?)?)`},
	{"Corpse Party Musume #04", `^(?<Series>.*)(?: |_)#(?<Chapter>\d+)`},
	{"Green Worldz - Chapter 027", `^(?!Vol)(?<Series>.*)\s?(?<!vol\. )\sChapter\s(?<Chapter>\d+(?:\.?[\d-]+)?)`},
	{"Noblesse - Episode 406 (52 Pages)", `(\s|_|^)(?:Episode|Ep\.?)(\s|_)(?<Chapter>\d+(?:\.\d+|-\d+)?)`},
	{"Black Bullet chapters 1-30", `(\b|_)chapters(\s|_)?(?<Chapter>\d+(?:\.\d+)?(?:-\d+(?:\.\d+)?)?)`},
	{"Hinowa ga CRUSH! 018 (2019) (Digital) (LuCaZ)", `^(?!Vol)(?<Series>.+?)(?<!Vol)(?<!Vol\.)(?<!Volume)(?<!v)\s(\d\s)?(?<Chapter>\d+(?:\.?\d+)?(?:-\d+(?:\.\d+)?)?)(?:\s\(\d{4}\))?(\b|_|-)`},
	{"Tower Of God S01 014", `(?<Series>.*)\sS(?<Volume>\d+)\s(?<Chapter>\d+(?:.\d+|-\d+)?)`},
	{"Beelzebub_153b_RHS", `^((?!v|vo|vol|Volume).)*(\s|_)(?<Chapter>\.?\d+(?:.\d+|-\d+)?)(?<Part>b)?(\s|_|\[|\()`},
	{"Yumekui-Merry_DKThias_Chapter21", `Chapter(?<Chapter>\d+(-\d+)?)`},
	{"[Hidoi]_Amaenaideyo_MS_vol01_chp02", `(?<Series>.*)(\s|_)(vol\d+(\s|_))?Chp\.? ?(?<Chapter>\d+)`},
	{"Vol 1 Chapter 2", `(?<Volume>((vol|volume|v))?(\s|_)?\.?\d+)(\s|_)(Chp|Chapter)\.?(\s|_)?(?<Chapter>\d+)`},
}, nonLatinChapterRules)...)

var mangaSeriesRules = table(FieldSeries, join(nonLatinSeriesRules, []ruleSpec{
	{"Grand Blue Dreaming - SP02", `(?<Series>.*)(\b|_|-|\s)(?:sp)\d`},
	{"Mad Chimera World - Volume 005 - Chapter 026", `(?<Series>.+?)(\s|_|-)+(?:Vol(ume|\.)?(\s|_|-)+\d+)(\s|_|-)+(?:(Ch|Chapter|Ch)\.?)(\s|_|-)+(?<Chapter>\d+)`},
	{"Ichiban_Ushiro_no_Daimaou_v04_ch34_[VISCANS]", `(?<Series>.*)(\b|_)v(?<Volume>\d+-?\d*)(\s|_|-)`},
	{"Gokukoku no Brynhildr - c001-008 (v01) [TrinityBAKumA]", `(?<Series>.*)( - )(?:v|vo|c|chapters)\d`},
	{"Foo 50, Chapter 3", `(?<Series>.*)(?:, Chapter )(?<Chapter>\d+)`},
	{"Please Go Home, Akutsu-San! - Chapter 038.5", `(?<Series>.+?)(\s|_|-)(?!Vol)(\s|_|-)((?:Chapter)|(?:Ch\.))(\s|_|-)(?<Chapter>\d+)`},
	{"Mujaki no Rakuen Vol12 ch76", `(?<Series>.+?):? (\b|_|-)(vol)\.?(\s|-|_)?\d+`},
	{"Kimetsu no Yaiba - Chapter 205 Volume 23", `(?<Series>.+?):?(\s|\b|_|-)Chapter(\s|\b|_|-)\d+(\s|\b|_|-)(vol)(ume)`},
	{"[xPearse] Kyochuu Rettou Volume 1", `(?<Series>.+?):? (\b|_|-)(vol)(ume)`},
	{"Knights of Sidonia c000 (S2 LE BD Omake - BLAME!)", `(?<Series>.*?)(?<!\()\bc\d+\b`},
	{"Tonikaku Cawaii [Volume 11]", `(?<Series>.*)(?: _|-|\[|\()\s?vol(ume)?`},
	{"Ichinensei ni Nacchattara Chapter 1", `(?<Series>.*)(\b|_|-|\s)(?:chapter)(\b|_|-|\s)\d`},
	{"Vagabond ch1", `(?<Series>.*) (\b|_|-)(v|ch\.?|c|s)\d+`},
	{"Hinowa ga CRUSH! 018 (2019) (Digital) (LuCaZ)", `(?<Series>.*)\s+(?<Chapter>\d+)\s+(?:\(\d{4}\))\s`},
	{"Goblin Slayer - Brand New Day 006.5 (2019)", `(?<Series>.*) (-)?(?<Chapter>\d+(?:.\d+|-\d+)?) \(\d{4}\)`},
	{"Noblesse - Episode 406 (52 Pages)", `(?<Series>.*)(\s|_)(?:Episode|Ep\.?)(\s|_)(?<Chapter>\d+(?:.\d+|-\d+)?)`},
	{"Akame ga KILL! ZERO (2016-2019) (Digital) (LuCaZ)", `(?<Series>.*)\(\d`},
	{"Tonikaku Kawaii (Ch 59-67) (Ongoing)", `(?<Series>.*)(\s|_)\((c\s|ch\s|chapter\s)`},
	{"Black Bullet chapters 1-30", `(?<Series>.+?)(\s|_|\-)+?chapters(\s|_|\-)+?\d+(\s|_|\-)+?`},
	{"It's Witching Time! 001 (Digital) (Anonymous1234)", `(?<Series>.+?)(\s|_|\-)+?\d+(\s|_|\-)\(`},
	{"Ichinensei_ni_Nacchattara_v01_ch01_[Taruby]_v1.1", `(?<Series>.*)(v|s)\d+(-\d+)?(_|\s)`},
	{"[Suihei Kiki]_Kasumi_Otoko_no_Ko_[Taruby]_v1.1", `(?<Series>.*)(v|s)\d+(-\d+)?`},
	{"Hentai Ouji to Warawanai Neko._vol_01", `(?<Series>.*)(_)(v|vo|vol|c|volume)( |_)\d+`},
	{"[Hidoi]_Amaenaideyo_MS_vol01_chp02", `(?<Series>.*)( |_)(vol\d+)?( |_)(?:Chp\.? ?\d+)`},
	{"Mahoutsukai to Deshi no Futekisetsu na Kankei Chp. 1", `(?<Series>.*)( |_)(?:Chp.? ?\d+)`},
	{"Corpse Party -The Anthology- Sachikos game of love Hysteric Birthday 2U Chapter 01", `^(?!Vol)(?<Series>.*)( |_)Chapter( |_)(\d+)`},
	{"Fullmetal Alchemist chapters 101-108", `^(?!vol)(?<Series>.*)( |_)(chapters( |_)?)\d+-?\d*`},
	{"Umineko no Naku Koro ni - Episode 1 - Legend of the Golden Witch #1", `^(?!Vol\.?)(?<Series>.*)( |_|-)(?<!-)(episode|chapter|ch\.?) ?\d+-?\d*`},
	{"Baketeriya ch01-05", `^(?!Vol)(?<Series>.*)ch\d+-?\d?`},
	{"Magi - Ch.252-005", `(?<Series>.*)( ?- ?)Ch\.\d+-?\d*`},
	{"[BAA]_Darker_than_Black_Omake-1", `^(?!Vol)(?<Series>.*\D)(-)\d+-?\d*`},
	{"Kodoja #001 (March 2016)", `(?<Series>.*)(\s|_|-)#`},
	{"Beelzebub_01_[Noodles]", `^(?!Vol\.?)(?!Chapter)(?<Series>.+?)(\s|_|-)(?<!-)(ch|chapter)?\.?\d+-?\d*`},
})...)

var comicVolumeRules = table(FieldVolume, join([]ruleSpec{
	{"Daredevil - v6 - 10 - (2019)", `^(?<Series>.+?)(?: |_)(t|v)(?<Volume>\d+)`},
	{"Batgirl Vol.2000 #57 (December, 2004)", `^(?<Series>.+?)(?:\s|_)(v|vol|tome|t)\.?(\s|_)?(?<Volume>\d+)`},
}, nonLatinVolumeRules)...)

var comicChapterRules = table(FieldChapter, join([]ruleSpec{
	{"Batman & Wildcat (1 of 3)", `(?<Series>.*(\d{4})?)( |_)(?:\((?<Chapter>\d+) of \d+)`},
	{"Batman Beyond 04 (of 6) (1999)", `(?<Series>.+?)(?<Chapter>\d+)(\s|_|-)?\(of`},
	{"Batman Beyond 2.0 001 (2013)", `^(?<Series>.+?\S\.\d) (?<Chapter>\d+)`},
	{"Teen Titans v1 038 (1972) (c2c)", `^(?<Series>.+?)(?: |_)v(?<Volume>\d+)(?: |_)(c? ?)(?<Chapter>(\d+(\.\d)?)-?(\d+(\.\d)?)?)(c? ?)`},
	{"Batgirl Vol.2000 #57 (December, 2004)", `^(?<Series>.+?)(?:vol\.?\d+)\s#(?<Chapter>\d+)`},
	{"Daredevil - v6 - 10 - (2019)", `^(?<Series>.+?)(?: |_)(c? ?)(?<Chapter>(\d+(\.\d)?)-?(\d+(\.\d)?)?)(c? ?)-`},
	{"Batman & Robin the Teen Wonder #0", `^(?<Series>.+?)(?: |_)#(?<Chapter>\d*)`},
	{"Saga 001 (2012) (Digital) (Empire-Zone)", `^(?<Series>.+?)(?: |_)(c? ?)(?<Chapter>(\d+(\.\d)?)-?(\d+(\.\d)?)?)(c? ?)\(`},
	{"Amazing Man Comics chapter 25", `^(?!Vol)(?<Series>.+?)( |_)c(hapter)( |_)(?<Chapter>\d*)`},
	{"Amazing Man Comics issue #25", `^(?!Vol)(?<Series>.+?)( |_)i(ssue)( |_)#(?<Chapter>\d*)`},
	{"Batman & Catwoman - Trail of the Gun 01", `^(?<Series>.+?)(?: (?<Chapter>\d+))`},
	{"spawn-123", `^(?<Series>.+?)-(chapter-)?(?<Chapter>\d+)`},
}, nonLatinChapterRules)...)

var comicSeriesRules = table(FieldSeries, join(nonLatinSeriesRules, []ruleSpec{
	{"Tintin - T22 Vol 714 pour Sydney", `(?<Series>.+?)\s?(\b|_|-)\s?((vol|tome|t)\.?)(?<Volume>\d+(-\d+)?)`},
	{"Invincible Vol 01 Family Matters", `(?<Series>.+?)(\b|_)((vol|tome|t)\.?)(\s|_)(?<Volume>\d+(-\d+)?)`},
	{"Batman Beyond 2.0 001 (2013)", `^(?<Series>.+?\S\.\d) (?<Chapter>\d+)`},
	{"04 - Asterix the Gladiator (1964)", `^(?<Volume>\d+)\s(-\s|_)(?<Series>.*(\d{4})?)( |_)(\(|\d+)`},
	{"01 Spider-Man & Wolverine 01", `^(?<Volume>\d+)(?:\s|_)(?<Series>.*(?:\d{4})?)(?:\s|_)(?:\(|\d+)`},
	{"Batman & Wildcat (1 of 3)", `(?<Series>.*(\d{4})?)( |_)(?:\((?<Volume>\d+) of \d+)`},
	{"Teen Titans v1 001 (1966-02) (digital) (OkC.O.M.P.U.T.O.-Novus)", `^(?<Series>.+?)(?: |_)v(?<Volume>\d+)`},
	{"Amazing Man Comics chapter 25", `^(?<Series>.+?)(?: |_)c(hapter) \d+`},
	{"Amazing Man Comics issue #25", `^(?<Series>.+?)(?: |_)i(ssue) #\d+`},
	{"Invincible Ep 01", `^(?<Series>.+?)(\s|_|-)(?:Ep\.?)(\s|_|-)+\d+`},
	{"Batgirl Vol.2000 #57 (December, 2004)", `^(?<Series>.+?)Vol\.?\s?#?(?:\d+)`},
	{"Batman & Robin the Teen Wonder #0", `^(?<Series>.*)(?: |_)#\d+`},
	{"Batman & Catwoman - Trail of the Gun 01", `^(?<Series>.+?)(?: \d+)`},
	{"Scott Pilgrim 02 - Scott Pilgrim vs. The World", `^(?<Series>.+?)(?: |_)(?<Chapter>\d+)`},
	{"The First Asterix Frieze (WebP by Doc MaKS)", `^(?<Series>.*)(?: |_)(?!\(\d{4}|\d{4}-\d{2}\))\(`},
	{"spawn-123", `^(?<Series>.+?)-(chapter-)?(?<Chapter>\d+)`},
	{"Batman & Daredevil - King of New York", `^(?<Series>.*)`},
})...)

var editionRules = table(FieldEdition,
	ruleSpec{"Tenjo Tenge {Full Contact Edition} v01 (2011)", `(?<Edition>[\{\(\[][^\{\}\(\)\[\]]* Edition[\}\)\]])`},
	ruleSpec{"Chobits {Deluxe} v01", `(?<Edition>\{[^\{\}]+\})`},
	ruleSpec{"Vagabond Omnibus Edition v01", `(\b|_)(?<Edition>Omnibus((\s|_)?Edition)?)(\b|_)?`},
	ruleSpec{"Prison School Uncensored v01", `(\b|_)(?<Edition>Uncensored)(\b|_)`},
	ruleSpec{"Dragon Ball Full Color v01", `(\b|_)(?<Edition>Full(\s|_)Color)(\b|_)?`},
)

var (
	mangaSpecialRegex = mustRule(`\b(?:Specials?|One[- ]?Shot|Omake|Extras?|Bonus|Fanbook|Art Collection|Side[ _]Stor(?:y|ies)|Short[ _]Stor(?:y|ies))\b`)
	comicSpecialRegex = mustRule(`\b(?:Specials?|One[- ]?Shot|Annual|Omake|Extras?|Bonus|Fanbook|Art Collection|Side[ _]Stories|Book \d+|Compendium \d+|Omnibus \d+|FCBD \d+|Absolute \d+|Preview \d+|Hors[ -]S[ée]rie|HS|THS)\b`)
	specialMarkerRegex = mustRule(`\bSP\d+`)
)
