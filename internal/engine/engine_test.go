package engine

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lkpatch/lkpatch/internal/lkimage"
	"github.com/lkpatch/lkpatch/internal/policy"
	"github.com/lkpatch/lkpatch/internal/rules"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastbootImage(t *testing.T, dir string) *lkimage.Image {
	t.Helper()
	data := append([]byte{0x00, 0x00}, 0xf0, 0xb5, 0xad, 0xf5, 0x92, 0x5d)
	data = append(data, bytes.Repeat([]byte{0xaa}, 8)...)
	img, err := lkimage.Parse(filepath.Join(dir, "lk.img"), data)
	require.NoError(t, err)
	return img
}

func TestApplyWritesPatch(t *testing.T) {
	dir := t.TempDir()
	img := fastbootImage(t, dir)
	set := rules.Select(rules.Defaults(), []string{"fastboot"}, nil)

	out, err := New(quietLogger()).Apply(img, set, Options{})
	require.NoError(t, err)

	assert.Equal(t, 2, out.Total)
	assert.Equal(t, 1, out.Applied)
	assert.Equal(t, 1, out.Skipped)
	assert.Equal(t, policy.VerdictApplied, out.Verdict)
	assert.Equal(t, map[string]map[string]bool{
		"fastboot": {"2de9f04fadf5ac5d": false, "f0b5adf5925d": true},
	}, out.Results())

	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x20, 0x70, 0x47, 0x92, 0x5d}, img.Contents()[:8])
	assert.Equal(t, 2, out.Categories[0].Entries[1].Offset)
	assert.Equal(t, -1, out.Categories[0].Entries[0].Offset)

	_, err = os.Stat(filepath.Join(dir, "lk.img.debug.txt"))
	assert.True(t, os.IsNotExist(err), "no dump expected on success")
}

func TestApplyNothingFoundFails(t *testing.T) {
	dir := t.TempDir()
	img, err := lkimage.Parse(filepath.Join(dir, "lk.img"), bytes.Repeat([]byte{0xaa}, 64))
	require.NoError(t, err)
	before := append([]byte(nil), img.Contents()...)

	out, err := New(quietLogger()).Apply(img, rules.Defaults(), Options{})
	require.ErrorIs(t, err, ErrNoRulesApplied)

	var target *NoRulesAppliedError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, img.Name(), target.Image)

	require.NotNil(t, out)
	assert.Equal(t, 0, out.Applied)
	assert.Equal(t, rules.Defaults().Len(), out.Skipped)
	assert.Equal(t, policy.VerdictFailed, out.Verdict)
	assert.Equal(t, before, img.Contents())

	dump, err := os.ReadFile(filepath.Join(dir, "lk.img.debug.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(dump), lkimage.RawRegion+":\n")
}

func TestApplyAllowIncomplete(t *testing.T) {
	dir := t.TempDir()
	img, err := lkimage.Parse(filepath.Join(dir, "lk.img"), bytes.Repeat([]byte{0xaa}, 64))
	require.NoError(t, err)
	dumpPath := filepath.Join(dir, "custom.txt")

	out, err := New(quietLogger()).Apply(img, rules.Defaults(), Options{AllowIncomplete: true, DumpPath: dumpPath})
	require.NoError(t, err)
	assert.Equal(t, policy.VerdictIncomplete, out.Verdict)

	_, err = os.Stat(dumpPath)
	assert.NoError(t, err)
}

func TestApplyDryRunLeavesImageUntouched(t *testing.T) {
	img := fastbootImage(t, t.TempDir())
	before := append([]byte(nil), img.Contents()...)

	out, err := New(quietLogger()).Apply(img, rules.Defaults(), Options{DryRun: true})
	require.NoError(t, err)

	assert.Equal(t, out.Total, out.Applied)
	assert.Equal(t, 0, out.Skipped)
	assert.Equal(t, policy.VerdictDryRun, out.Verdict)
	assert.Equal(t, before, img.Contents())
	for _, cat := range out.Categories {
		for _, e := range cat.Entries {
			assert.True(t, e.Applied)
			assert.Equal(t, -1, e.Offset)
		}
	}
}

func TestApplyBadRuleTouchesNothing(t *testing.T) {
	img := fastbootImage(t, t.TempDir())
	before := append([]byte(nil), img.Contents()...)

	set := rules.NewCatalog()
	set.Set("fastboot", "f0b5adf5925d", "00207047")
	set.Set("fastboot", "zz", "00")

	out, err := New(quietLogger()).Apply(img, set, Options{})
	require.ErrorIs(t, err, rules.ErrValidation)
	assert.Nil(t, out)
	assert.Equal(t, before, img.Contents())
}

func TestApplyEmptySet(t *testing.T) {
	dir := t.TempDir()
	img := fastbootImage(t, dir)

	out, err := New(quietLogger()).Apply(img, rules.NewCatalog(), Options{})
	require.ErrorIs(t, err, ErrNoRulesApplied)
	assert.Equal(t, 0, out.Total)
	assert.Empty(t, out.Results())
}

func TestApplyKeepsCategoryOrder(t *testing.T) {
	img := fastbootImage(t, t.TempDir())

	out, err := New(quietLogger()).Apply(img, rules.Defaults(), Options{DryRun: true})
	require.NoError(t, err)

	var names []string
	for _, cat := range out.Categories {
		names = append(names, cat.Name)
	}
	assert.Equal(t, rules.Defaults().Names(), names)
	assert.Equal(t, 2, out.AppliedIn("fastboot"))
	assert.Equal(t, 0, out.AppliedIn("missing"))
}

func TestApplySecondRunFindsNothing(t *testing.T) {
	img := fastbootImage(t, t.TempDir())
	set := rules.Select(rules.Defaults(), []string{"fastboot"}, nil)
	eng := New(quietLogger())

	_, err := eng.Apply(img, set, Options{})
	require.NoError(t, err)

	_, err = eng.Apply(img, set, Options{})
	assert.ErrorIs(t, err, ErrNoRulesApplied)
}
