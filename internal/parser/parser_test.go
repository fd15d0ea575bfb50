package parser

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/mango-catalog/internal/models"
)

func TestMangaParseVolume(t *testing.T) {
	testCases := []struct {
		filename string
		expected string
	}{
		{"Dance in the Vampire Bund v16-17 (Digital) (NiceDragon)", "16-17"},
		{"Mujaki no Rakuen Vol12 ch76", "12"},
		{"Killing Bites Vol. 0001 Ch. 0001 - Galactica Scanlations (gb)", "1"},
		{"Tower Of God S01 014 (CBT) (digital)", "1"},
		{"[Suihei Kiki]_Kasumi_Otoko_no_Ko_[Taruby]_v1.1.zip", "1.1"},
		{"Tonikaku Cawaii [Volume 11]", "11"},
		{"vol_356-1", "356"},
		{"幽游白书完全版 第03卷 天下", "3"},
		{"Kebab Том 1 Глава 3", "1"},
		{"Beelzebub_01_[Noodles].zip", LooseLeafVolume},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, Manga.ParseVolume(tc.filename), "ParseVolume(%q)", tc.filename)
	}
}

func TestMangaParseChapter(t *testing.T) {
	testCases := []struct {
		filename string
		expected string
	}{
		{"Beelzebub_01_[Noodles].zip", "1"},
		{"Beelzebub_153b_RHS.zip", "153.5"},
		{"Beelzebub_150-153b_RHS.zip", "150-153.5"},
		{"Mujaki no Rakuen Vol12 ch76.cbz", "76"},
		{"Green Worldz - Chapter 027", "27"},
		{"Hinowa ga CRUSH! 018 (2019) (Digital) (LuCaZ).cbz", "18"},
		{"Noblesse - Episode 406 (52 Pages).7z", "406"},
		{"Tower Of God S01 014 (CBT) (digital).cbz", "14"},
		{"Killing Bites Vol. 0001 Ch. 0001", "1"},
		{"Yumekui-Merry_DKThias_Chapter21.zip", "21"},
		{"Vol 1 Chapter 2", "2"},
		{"Solo Leveling 100-110", "100-110"},
		{"Dr. STONE 001-010", "1-10"},
		{"Black Bullet chapters 1-30", "1-30"},
		{"Fullmetal Alchemist chapters 101-108", "101-108"},
		{"Tenjo Tenge {Full Contact Edition} v01 (2011) (Digital) (ASTC).cbz", DefaultChapter},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, Manga.ParseChapter(tc.filename), "ParseChapter(%q)", tc.filename)
	}
}

func TestMangaParseSeries(t *testing.T) {
	testCases := []struct {
		filename string
		expected string
	}{
		{"Mujaki no Rakuen Vol12 ch76", "Mujaki no Rakuen"},
		{"Beelzebub_01_[Noodles]", "Beelzebub"},
		{"Beelzebub_01-02_[Noodles]", "Beelzebub"},
		{"Beelzebub_150-153b_RHS", "Beelzebub"},
		{"Solo Leveling 100-110", "Solo Leveling"},
		{"Kimi no Na wa - 001-003", "Kimi no Na wa"},
		{"Dr. STONE 001-010", "Dr. STONE"},
		{"Ichiban_Ushiro_no_Daimaou_v04_ch34_[VISCANS]", "Ichiban Ushiro no Daimaou"},
		{"Tonikaku Cawaii [Volume 11]", "Tonikaku Cawaii"},
		{"Hinowa ga CRUSH! 018 (2019) (Digital) (LuCaZ)", "Hinowa ga CRUSH!"},
		{"Akame ga KILL! ZERO (2016-2019) (Digital) (LuCaZ)", "Akame ga KILL! ZERO"},
		{"Knights of Sidonia c000 (S2 LE BD Omake - BLAME!)", "Knights of Sidonia"},
		{"Gokukoku no Brynhildr - c001-008 (v01) [TrinityBAKumA]", "Gokukoku no Brynhildr"},
		{"Grand Blue Dreaming - SP02", "Grand Blue Dreaming"},
		{"Noblesse - Episode 406 (52 Pages)", "Noblesse"},
		{"[xPearse] Kyochuu Rettou Volume 1 [Complete]", "Kyochuu Rettou"},
		{"Tenjo Tenge {Full Contact Edition} v01 (2011) (Digital) (ASTC)", "Tenjo Tenge"},
		{"Love Hina", ""},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, Manga.ParseSeries(tc.filename), "ParseSeries(%q)", tc.filename)
	}
}

func TestComicParsing(t *testing.T) {
	t.Run("series", func(t *testing.T) {
		testCases := []struct {
			filename string
			expected string
		}{
			{"Batman & Wildcat (1 of 3)", "Batman & Wildcat"},
			{"Daredevil - v6 - 10 - (2019)", "Daredevil"},
			{"Tintin - T22 Vol 714 pour Sydney", "Tintin"},
			{"Batman & Robin the Teen Wonder #0", "Batman & Robin the Teen Wonder"},
			{"Teen Titans v1 001 (1966-02) (digital) (OkC.O.M.P.U.T.O.-Novus)", "Teen Titans"},
			{"Green Lantern - Circle of Fire Special - Adam Strange", "Green Lantern - Circle of Fire - Adam Strange"},
		}
		for _, tc := range testCases {
			assert.Equal(t, tc.expected, Comic.ParseSeries(tc.filename), "ParseSeries(%q)", tc.filename)
		}
	})

	t.Run("volume", func(t *testing.T) {
		assert.Equal(t, "6", Comic.ParseVolume("Daredevil - v6 - 10 - (2019)"))
		assert.Equal(t, LooseLeafVolume, Comic.ParseVolume("Batman & Wildcat (1 of 3)"))
	})

	t.Run("chapter", func(t *testing.T) {
		testCases := []struct {
			filename string
			expected string
		}{
			{"Batman & Wildcat (1 of 3)", "1"},
			{"Daredevil - v6 - 10 - (2019)", "10"},
			{"Batman Beyond 04 (of 6) (1999)", "4"},
			{"Saga 001 (2012) (Digital) (Empire-Zone)", "1"},
		}
		for _, tc := range testCases {
			assert.Equal(t, tc.expected, Comic.ParseChapter(tc.filename), "ParseChapter(%q)", tc.filename)
		}
	})
}

func TestParseEdition(t *testing.T) {
	assert.Equal(t, "Full Contact Edition", ParseEdition("Tenjo Tenge {Full Contact Edition} v01 (2011) (Digital) (ASTC)"))
	assert.Equal(t, "Omnibus Edition", ParseEdition("Vagabond Omnibus Edition v01"))
	assert.Equal(t, "Deluxe", ParseEdition("Chobits {Deluxe} v01"))
	assert.Equal(t, "Uncensored", ParseEdition("Prison School Uncensored v01"))
	assert.Equal(t, "", ParseEdition("Beelzebub_01_[Noodles]"))
}

func TestIsSpecial(t *testing.T) {
	assert.True(t, Manga.IsSpecial("Ani-Hina Art Collection"))
	assert.True(t, Manga.IsSpecial("Grand Blue Dreaming - SP02"))
	assert.True(t, Manga.IsSpecial("Specials"))
	assert.False(t, Manga.IsSpecial("Dr. Ramune - Mysterious Disease Specialist v01 (2020) (Digital) (danke-Empire)"))
	assert.False(t, Comic.IsSpecial("The League of Extraordinary Gentlemen v01"))
	assert.True(t, Comic.IsSpecial("Batman - Detective Comics - Annual 01"))
	assert.False(t, Comic.IsSpecial("Mazebook 001"))
}

func TestHasSpecialMarker(t *testing.T) {
	assert.True(t, HasSpecialMarker("Grand Blue Dreaming - SP02"))
	assert.False(t, HasSpecialMarker("Grand Blue Dreaming - 02"))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "darkerthanblack", Normalize("Darker Than_Black"))
	assert.Equal(t, "darkerthanblack", Normalize("Darker than Black!"))
	assert.Equal(t, "btooom", Normalize("Btooom!"))
	assert.Equal(t, "僕のヒーロー", Normalize("僕の ヒーロー"))
	assert.Equal(t, "", Normalize("!!!"))
}

func TestCleanTitle(t *testing.T) {
	assert.Equal(t, "Kasumi Otoko no Ko", CleanTitle("[Suihei Kiki]_Kasumi_Otoko_no_Ko"))
	assert.Equal(t, "Title Name", CleanTitle("[Group] Title   Name "))
	assert.Equal(t, "Darker than Black", CleanTitle("Darker_than_Black"))
}

func TestParse(t *testing.T) {
	root := filepath.FromSlash("/library")
	path := func(p string) string { return filepath.Join(root, filepath.FromSlash(p)) }

	t.Run("series from filename", func(t *testing.T) {
		info := Parse(path("Mujaki no Rakuen/Mujaki no Rakuen Vol12 ch76.cbz"), root, models.LibraryManga)
		require.NotNil(t, info)
		assert.Equal(t, "Mujaki no Rakuen", info.Series)
		assert.Equal(t, "mujakinorakuen", info.NormalizedSeries)
		assert.Equal(t, "12", info.Volume.String())
		assert.Equal(t, "76", info.Chapter.String())
		assert.Equal(t, models.FormatArchive, info.Format)
		assert.False(t, info.IsSpecial)
	})

	t.Run("loose leaf chapter", func(t *testing.T) {
		info := Parse(path("Beelzebub/Beelzebub_01_[Noodles].zip"), root, models.LibraryManga)
		require.NotNil(t, info)
		assert.Equal(t, "Beelzebub", info.Series)
		assert.Equal(t, KindLooseLeaf, info.Volume.Kind)
		assert.Equal(t, LooseLeafVolume, info.Volume.String())
		assert.Equal(t, KindNumber, info.Chapter.Kind)
		assert.Equal(t, 1.0, info.Chapter.Min)
	})

	t.Run("edition stripped from series", func(t *testing.T) {
		info := Parse(path("Tenjo Tenge/Tenjo Tenge {Full Contact Edition} v01 (2011) (Digital) (ASTC).cbz"), root, models.LibraryManga)
		require.NotNil(t, info)
		assert.Equal(t, "Tenjo Tenge", info.Series)
		assert.Equal(t, "Full Contact Edition", info.Edition)
		assert.Equal(t, "1", info.Volume.String())
	})

	t.Run("special falls back to folders", func(t *testing.T) {
		info := Parse(path("Love Hina/Specials/Ani-Hina Art Collection.cbz"), root, models.LibraryManga)
		require.NotNil(t, info)
		assert.Equal(t, "Love Hina", info.Series)
		assert.True(t, info.IsSpecial)
		assert.Equal(t, KindSpecial, info.Volume.Kind)
		assert.Equal(t, SpecialVolume, info.Volume.String())
	})

	t.Run("special marker", func(t *testing.T) {
		info := Parse(path("Grand Blue Dreaming/Grand Blue Dreaming - SP02.cbz"), root, models.LibraryManga)
		require.NotNil(t, info)
		assert.Equal(t, "Grand Blue Dreaming", info.Series)
		assert.True(t, info.IsSpecial)
		assert.Equal(t, KindSpecial, info.Volume.Kind)
	})

	t.Run("volume and chapter from folders", func(t *testing.T) {
		info := Parse(path("Btooom!/Vol.1/Chapter 1/1.cbz"), root, models.LibraryManga)
		require.NotNil(t, info)
		assert.Equal(t, "Btooom!", info.Series)
		assert.Equal(t, "1", info.Volume.String())
		assert.Equal(t, "1", info.Chapter.String())
	})

	t.Run("images take everything from folders", func(t *testing.T) {
		info := Parse(path("Some Series/Vol 2/001.jpg"), root, models.LibraryManga, WithSiblingImages(10))
		require.NotNil(t, info)
		assert.Equal(t, models.FormatImage, info.Format)
		assert.Equal(t, "Some Series", info.Series)
		assert.Equal(t, "2", info.Volume.String())
		assert.Equal(t, KindUnset, info.Chapter.Kind)
	})

	t.Run("comic", func(t *testing.T) {
		info := Parse(path("Batman & Wildcat/Batman & Wildcat (1 of 3).cbz"), root, models.LibraryComic)
		require.NotNil(t, info)
		assert.Equal(t, "Batman & Wildcat", info.Series)
		assert.Equal(t, "1", info.Chapter.String())
		assert.Equal(t, KindLooseLeaf, info.Volume.Kind)
	})

	t.Run("book pdf", func(t *testing.T) {
		info := Parse(path("My Book.pdf"), root, models.LibraryBook)
		require.NotNil(t, info)
		assert.Equal(t, "My Book", info.Series)
		assert.Equal(t, models.FormatPdf, info.Format)
	})

	t.Run("legacy sentinels", func(t *testing.T) {
		info := ProfileFor(models.LibraryManga, true).Parse(path("Beelzebub/Beelzebub_01_[Noodles].zip"), root)
		require.NotNil(t, info)
		assert.Equal(t, LegacyDefault, info.Volume.String())
		assert.Equal(t, KindLooseLeaf, info.Volume.Kind)
	})

	t.Run("rejected paths", func(t *testing.T) {
		assert.Nil(t, Parse(path("Series/cover.jpg"), root, models.LibraryManga))
		assert.Nil(t, Parse(path("__MACOSX/Series/Series 01.cbz"), root, models.LibraryManga))
		assert.Nil(t, Parse(path("Series/._Series 01.cbz"), root, models.LibraryManga))
		assert.Nil(t, Parse(path("Series/notes.txt"), root, models.LibraryManga))
	})

	t.Run("cover among pages is kept", func(t *testing.T) {
		info := Parse(path("Series/cover.jpg"), root, models.LibraryManga, WithSiblingImages(5))
		require.NotNil(t, info)
		assert.Equal(t, "Series", info.Series)
	})
}

func TestIsCoverImage(t *testing.T) {
	assert.True(t, IsCoverImage("cover.jpg"))
	assert.True(t, IsCoverImage("folder.jpg"))
	assert.True(t, IsCoverImage("Accel World_cover.png"))
	assert.False(t, IsCoverImage("Accel World_covers.png"))
	assert.False(t, IsCoverImage("backcover.jpg"))
	assert.False(t, IsCoverImage("cover.cbz"))
}

func TestFoldersTillRoot(t *testing.T) {
	root := filepath.FromSlash("/library")
	file := filepath.Join(root, "Love Hina", "Specials", "Ani-Hina Art Collection.cbz")
	assert.Equal(t, []string{"Specials", "Love Hina"}, FoldersTillRoot(root, file))
	assert.Empty(t, FoldersTillRoot(root, filepath.Join(root, "file.cbz")))
	assert.Empty(t, FoldersTillRoot(root, filepath.FromSlash("/elsewhere/a/file.cbz")))
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, models.FormatArchive, ParseFormat("a.CBZ"))
	assert.Equal(t, models.FormatArchive, ParseFormat("a.tar.gz"))
	assert.Equal(t, models.FormatImage, ParseFormat("a.webp"))
	assert.Equal(t, models.FormatEpub, ParseFormat("a.epub"))
	assert.Equal(t, models.FormatPdf, ParseFormat("a.pdf"))
	assert.Equal(t, models.FormatUnknown, ParseFormat("a.txt"))
	assert.Equal(t, "a", stem("a.tar.gz"))
}
