package navigator_test

import (
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgaunet/s3grab/pkg/catalog"
	"github.com/sgaunet/s3grab/pkg/navigator"
)

func TestSelectBucketResetsState(t *testing.T) {
	nav := navigator.New()
	nav.SelectBucket("first")
	require.NoError(t, nav.EnterFolder(catalog.Folder("a/")))
	require.NoError(t, nav.EnterFolder(catalog.Folder("a/b/")))

	nav.SelectBucket("second")
	assert.Equal(t, "second", nav.Bucket())
	assert.Equal(t, "", nav.Prefix())
	assert.Empty(t, nav.Breadcrumb())
	assert.Equal(t, "/", nav.PathLabel())
}

func TestEnterFolderAndGoUp(t *testing.T) {
	nav := navigator.New()
	nav.SelectBucket("b")

	require.NoError(t, nav.EnterFolder(catalog.Folder("a/")))
	require.NoError(t, nav.EnterFolder(catalog.Folder("a/sub/")))
	assert.Equal(t, "a/sub/", nav.Prefix())
	assert.Equal(t, []string{"a", "sub"}, nav.Breadcrumb())
	assert.Equal(t, "/a/sub", nav.PathLabel())

	nav.GoUp()
	assert.Equal(t, "a/", nav.Prefix())
	nav.GoUp()
	assert.Equal(t, "", nav.Prefix())
	nav.GoUp()
	assert.Equal(t, "", nav.Prefix(), "going up at the root is a no-op")
	assert.Empty(t, nav.Breadcrumb())
}

func TestEnterFolderRejectsFiles(t *testing.T) {
	nav := navigator.New()
	nav.SelectBucket("b")

	err := nav.EnterFolder(catalog.File("x.txt", 1, time.Time{}))
	assert.ErrorIs(t, err, navigator.ErrNotAFolder)
	assert.Equal(t, "", nav.Prefix())
}

func TestEnterFolderRejectsNonChildren(t *testing.T) {
	nav := navigator.New()
	nav.SelectBucket("b")
	require.NoError(t, nav.EnterFolder(catalog.Folder("a/")))

	for _, p := range []string{"other/", "a/b/c/", "a/b"} {
		err := nav.EnterFolder(catalog.Folder(p))
		assert.ErrorIs(t, err, navigator.ErrNotDirectChild, p)
	}
	assert.Equal(t, "a/", nav.Prefix())
	assert.Equal(t, []string{"a"}, nav.Breadcrumb())
}

func TestBreadcrumbIsACopy(t *testing.T) {
	nav := navigator.New()
	require.NoError(t, nav.EnterFolder(catalog.Folder("a/")))

	crumbs := nav.Breadcrumb()
	crumbs[0] = "mutated"
	assert.Equal(t, []string{"a"}, nav.Breadcrumb())
}

func TestEmptySegmentRoundTrip(t *testing.T) {
	nav := navigator.New()
	require.NoError(t, nav.EnterFolder(catalog.Folder("a/")))
	require.NoError(t, nav.EnterFolder(catalog.Folder("a//")))
	assert.Equal(t, "a//", nav.Prefix())

	nav.GoUp()
	assert.Equal(t, "a/", nav.Prefix())
}

func TestEnterThenGoUpRestoresPrefix(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	names := []string{"a", "b", "logs", "2024", "x y", "é"}

	for i := 0; i < 100; i++ {
		nav := navigator.New()
		nav.SelectBucket("bucket")

		for depth := rng.IntN(6); depth > 0; depth-- {
			before := nav.Prefix()
			child := catalog.Folder(before + names[rng.IntN(len(names))] + "/")
			require.NoError(t, nav.EnterFolder(child))
			assert.True(t, strings.HasSuffix(nav.Prefix(), "/"))

			nav.GoUp()
			require.Equal(t, before, nav.Prefix())

			require.NoError(t, nav.EnterFolder(child))
		}

		for len(nav.Breadcrumb()) > 0 {
			nav.GoUp()
			p := nav.Prefix()
			assert.True(t, p == "" || strings.HasSuffix(p, "/"), "prefix %q", p)
			if crumbs := nav.Breadcrumb(); len(crumbs) > 0 {
				assert.Equal(t, strings.Join(crumbs, "/")+"/", p)
			}
		}
		assert.Equal(t, "", nav.Prefix())
	}
}
