package library

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/mango-catalog/internal/models"
	"github.com/vrsandeep/mango-catalog/internal/parser"
	"github.com/vrsandeep/mango-catalog/internal/testutil"
)

func TestWalk(t *testing.T) {
	root := t.TempDir()
	testutil.CreateTestCBZ(t, root, "Beelzebub/Beelzebub_01_[Noodles].zip", nil)
	testutil.CreateTestCBZ(t, root, "Beelzebub/Beelzebub_02_[Noodles].zip", nil)
	testutil.CreateTestCBZ(t, root, "__MACOSX/Beelzebub_03.zip", nil)
	testutil.CreateTestCBZ(t, root, "Extras/skip/Beelzebub_04.zip", nil)
	testutil.WriteFile(t, root, "Beelzebub/._Beelzebub_01.zip", "")
	testutil.WriteFile(t, root, "Beelzebub/notes.txt", "")
	testutil.WriteFile(t, root, "Beelzebub/cover.jpg", "")

	exclude, err := NewExcluder([]string{"Extras/skip"})
	require.NoError(t, err)

	res, err := Walk(context.Background(), []Target{{Root: root, Dir: root}}, WalkOptions{Exclude: exclude, Workers: 2})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Files)
	assert.Empty(t, res.Unparsed)
	require.Len(t, res.Records, 2)
	assert.Equal(t, filepath.Join(root, "Beelzebub/Beelzebub_01_[Noodles].zip"), res.Records[0].FullPath)
	assert.Equal(t, "Beelzebub", res.Records[0].Series)
	assert.Equal(t, "1", res.Records[0].Chapter.Raw)
	assert.Equal(t, "2", res.Records[1].Chapter.Raw)
}

func TestWalkMissingTarget(t *testing.T) {
	root := t.TempDir()
	res, err := Walk(context.Background(), []Target{{Root: root, Dir: filepath.Join(root, "gone")}}, WalkOptions{})
	require.NoError(t, err)
	assert.Zero(t, res.Files)
	assert.Empty(t, res.Records)
}

func TestWalkCanceled(t *testing.T) {
	root := t.TempDir()
	testutil.CreateTestCBZ(t, root, "A/A v01.cbz", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Walk(ctx, []Target{{Root: root, Dir: root}}, WalkOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWalkDedupesOverlappingTargets(t *testing.T) {
	root := t.TempDir()
	testutil.CreateTestCBZ(t, root, "A/A v01.cbz", nil)

	targets := []Target{{Root: root, Dir: root}, {Root: root, Dir: filepath.Join(root, "A")}}
	res, err := Walk(context.Background(), targets, WalkOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Files)
	assert.Len(t, res.Records, 1)
}

func TestWalkImagesUseFolders(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "Some Comic/Chapter 1/001.jpg", "")
	testutil.WriteFile(t, root, "Some Comic/Chapter 1/002.jpg", "")
	testutil.WriteFile(t, root, "Some Comic/Chapter 1/cover.jpg", "")

	res, err := Walk(context.Background(), []Target{{Root: root, Dir: root}}, WalkOptions{})
	require.NoError(t, err)
	require.Len(t, res.Records, 3, "a cover among other images is a page")
	for _, r := range res.Records {
		assert.Equal(t, "Some Comic", r.Series)
		assert.Equal(t, models.FormatImage, r.Format)
		assert.Equal(t, "1", r.Chapter.Raw)
	}
}

func rec(path, series string, format models.Format) *parser.Info {
	return &parser.Info{
		Series:           series,
		NormalizedSeries: parser.Normalize(series),
		Format:           format,
		FullPath:         path,
		Filename:         filepath.Base(path),
	}
}

func TestGroup(t *testing.T) {
	records := []*parser.Info{
		rec("/lib/Darker than Black/c3.zip", "Darker Than Black", models.FormatArchive),
		rec("/lib/Darker than Black/c1.zip", "Darker than Black", models.FormatArchive),
		rec("/lib/Darker than Black/Extra/c2.zip", "Darker than Black", models.FormatArchive),
		rec("/lib/Darker than Black/book.pdf", "Darker than Black", models.FormatPdf),
		rec("/lib/Akira/v01.cbz", "Akira", models.FormatArchive),
	}

	groups := Group(records)
	require.Len(t, groups, 3)

	assert.Equal(t, "akira", groups[0].NormalizedName)
	assert.Equal(t, "/lib/Akira", groups[0].FolderPath)

	dtb := groups[1]
	assert.Equal(t, "darkerthanblack", dtb.NormalizedName)
	assert.Equal(t, models.FormatArchive, dtb.Format)
	assert.Equal(t, "Darker than Black", dtb.Name, "most common spelling wins")
	assert.Equal(t, "/lib/Darker than Black", dtb.FolderPath)
	require.Len(t, dtb.Records, 3)
	assert.Equal(t, "/lib/Darker than Black/Extra/c2.zip", dtb.Records[0].FullPath)

	assert.Equal(t, models.FormatPdf, groups[2].Format, "formats never share a group")
}

func TestGroupNameTieGoesToFirstPath(t *testing.T) {
	groups := Group([]*parser.Info{
		rec("/lib/b.zip", "Hajime no Ippo", models.FormatArchive),
		rec("/lib/a.zip", "Hajime No Ippo", models.FormatArchive),
	})
	require.Len(t, groups, 1)
	assert.Equal(t, "Hajime No Ippo", groups[0].Name)
	assert.Equal(t, "/lib", groups[0].FolderPath)
}
