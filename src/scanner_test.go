package dexy

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sha(content string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(content)))
}

func testContext(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.WarnLevel)
	return logger.WithContext(context.Background())
}

func canonicalTempDir(t *testing.T) string {
	root, err := Canonicalize(t.TempDir())
	require.NoError(t, err)
	return root
}

func runScan(t *testing.T, opts ScanOptions, roots ...string) ScanResult {
	t.Helper()
	result, err := NewScanner(opts).Run(testContext(t), roots)
	require.NoError(t, err)
	return result
}

func pathsByHash(result ScanResult) map[string][]string {
	out := make(map[string][]string, len(result))
	for hash, files := range result {
		for _, f := range files {
			out[hash] = append(out[hash], f.Path)
		}
		sort.Strings(out[hash])
	}
	return out
}

func TestScanner_HelloWorldScenario(t *testing.T) {
	root := canonicalTempDir(t)
	writeFile(t, filepath.Join(root, "a.txt"), "hello")
	writeFile(t, filepath.Join(root, "d", "b.txt"), "hello")
	writeFile(t, filepath.Join(root, "d", "c.txt"), "world")

	result := runScan(t, ScanOptions{Workers: 4}, root)

	assert.Equal(t, map[string][]string{
		sha("hello"): {filepath.Join(root, "a.txt"), filepath.Join(root, "d", "b.txt")},
		sha("world"): {filepath.Join(root, "d", "c.txt")},
	}, pathsByHash(result))

	for hash, files := range result {
		for _, f := range files {
			assert.Equal(t, hash, f.Hash)
			assert.Nil(t, f.Attributes)
		}
	}
}

func TestScanner_EmptyTree(t *testing.T) {
	root := canonicalTempDir(t)
	result := runScan(t, ScanOptions{Workers: 3}, root)
	assert.Empty(t, result)

	path, err := WriteResult(testContext(t), t.TempDir(), "empty", result)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestScanner_DirectoriesWithoutFiles(t *testing.T) {
	root := canonicalTempDir(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, os.MkdirAll(filepath.Join(root, fmt.Sprintf("d%d", i), "x", "y"), 0755))
	}

	scanner := NewScanner(ScanOptions{Workers: 2})
	result, err := scanner.Run(testContext(t), []string{root})
	require.NoError(t, err)
	assert.Empty(t, result)

	snap := scanner.Progress().Snapshot()
	assert.Equal(t, int64(16), snap.Processed)
	assert.Equal(t, snap.Processed, snap.Total)
	for _, status := range snap.Statuses {
		assert.Equal(t, StatusClosing, status)
	}
}

// buildTree creates width^depth leaf directories, each holding one unique
// file and one copy of a shared file.
func buildTree(t *testing.T, root string, width, depth int) int {
	t.Helper()
	var files int
	var walk func(dir string, level int)
	walk = func(dir string, level int) {
		if level == depth {
			writeFile(t, filepath.Join(dir, "unique.txt"), dir)
			writeFile(t, filepath.Join(dir, "shared.txt"), "shared")
			files += 2
			return
		}
		for i := 0; i < width; i++ {
			walk(filepath.Join(dir, fmt.Sprintf("n%d", i)), level+1)
		}
	}
	walk(root, 0)
	return files
}

func TestScanner_EveryFileExactlyOnce(t *testing.T) {
	root := canonicalTempDir(t)
	total := buildTree(t, root, 6, 2)

	for _, workers := range []int{1, 2, 8, 64} {
		t.Run(fmt.Sprintf("%d workers", workers), func(t *testing.T) {
			result := runScan(t, ScanOptions{Workers: workers, HashWorkers: 2}, root)

			seen := map[string]int{}
			for _, files := range result {
				for _, f := range files {
					seen[f.Path]++
				}
			}
			assert.Len(t, seen, total)
			for path, n := range seen {
				assert.Equal(t, 1, n, "%s recorded more than once", path)
			}
			assert.Len(t, result[sha("shared")], 36)
			assert.Len(t, result, 37)
		})
	}
}

func TestScanner_Idempotent(t *testing.T) {
	root := canonicalTempDir(t)
	buildTree(t, root, 3, 3)

	first := runScan(t, ScanOptions{Workers: 4}, root)
	second := runScan(t, ScanOptions{Workers: 7}, root)
	assert.Equal(t, first, second)
}

func TestScanner_WideShallowTree(t *testing.T) {
	root := canonicalTempDir(t)
	for i := 0; i < 200; i++ {
		writeFile(t, filepath.Join(root, fmt.Sprintf("dir%03d", i), "f.txt"), fmt.Sprintf("file %d", i))
	}

	result := runScan(t, ScanOptions{Workers: 32, HashWorkers: 1}, root)
	assert.Len(t, result, 200)
}

func TestScanner_HiddenPolicy(t *testing.T) {
	root := canonicalTempDir(t)
	writeFile(t, filepath.Join(root, "visible.txt"), "v")
	writeFile(t, filepath.Join(root, ".hidden.txt"), "h")
	writeFile(t, filepath.Join(root, ".cache", "inner.txt"), "i")

	result := runScan(t, ScanOptions{Workers: 2}, root)
	assert.Equal(t, map[string][]string{sha("v"): {filepath.Join(root, "visible.txt")}}, pathsByHash(result))

	result = runScan(t, ScanOptions{Workers: 2, IncludeHidden: true}, root)
	assert.Equal(t, map[string][]string{
		sha("v"): {filepath.Join(root, "visible.txt")},
		sha("h"): {filepath.Join(root, ".hidden.txt")},
		sha("i"): {filepath.Join(root, ".cache", "inner.txt")},
	}, pathsByHash(result))
}

func TestScanner_EmptyFilePolicy(t *testing.T) {
	root := canonicalTempDir(t)
	writeFile(t, filepath.Join(root, "empty"), "")
	writeFile(t, filepath.Join(root, "full"), "x")

	result := runScan(t, ScanOptions{Workers: 1}, root)
	assert.Equal(t, []string{filepath.Join(root, "empty")}, pathsByHash(result)[sha("")])

	result = runScan(t, ScanOptions{Workers: 1, IgnoreEmpty: true}, root)
	assert.NotContains(t, result, sha(""))
	assert.Contains(t, result, sha("x"))
}

func TestScanner_BrokenSymlinkDoesNotAbort(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need elevated privileges on windows")
	}
	root := canonicalTempDir(t)
	writeFile(t, filepath.Join(root, "a"), "a")
	require.NoError(t, os.Symlink(filepath.Join(root, "nowhere"), filepath.Join(root, "b")))
	writeFile(t, filepath.Join(root, "c"), "c")

	scanner := NewScanner(ScanOptions{Workers: 2})
	result, err := scanner.Run(testContext(t), []string{root})
	require.NoError(t, err)

	assert.Len(t, result, 2)
	assert.Equal(t, int64(1), scanner.Progress().Snapshot().Skipped)
}

func TestScanner_UnreadableEntriesAreSkipped(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	root := canonicalTempDir(t)
	writeFile(t, filepath.Join(root, "ok.txt"), "ok")
	writeFile(t, filepath.Join(root, "locked.txt"), "locked")
	writeFile(t, filepath.Join(root, "closed", "inner.txt"), "inner")
	require.NoError(t, os.Chmod(filepath.Join(root, "locked.txt"), 0))
	require.NoError(t, os.Chmod(filepath.Join(root, "closed"), 0))
	t.Cleanup(func() {
		os.Chmod(filepath.Join(root, "locked.txt"), 0644)
		os.Chmod(filepath.Join(root, "closed"), 0755)
	})

	scanner := NewScanner(ScanOptions{Workers: 2})
	result, err := scanner.Run(testContext(t), []string{root})
	require.NoError(t, err)

	assert.Equal(t, map[string][]string{sha("ok"): {filepath.Join(root, "ok.txt")}}, pathsByHash(result))
	assert.Equal(t, int64(2), scanner.Progress().Snapshot().Errors)
}

func TestScanner_VanishedDirectoryIsSkipped(t *testing.T) {
	root := canonicalTempDir(t)
	writeFile(t, filepath.Join(root, "ok.txt"), "ok")
	gone := filepath.Join(canonicalTempDir(t), "gone")
	require.NoError(t, os.Mkdir(gone, 0755))
	require.NoError(t, os.Remove(gone))

	scanner := NewScanner(ScanOptions{Workers: 2})
	result, err := scanner.Run(testContext(t), []string{gone, root})
	require.NoError(t, err)

	assert.Equal(t, map[string][]string{sha("ok"): {filepath.Join(root, "ok.txt")}}, pathsByHash(result))
	snap := scanner.Progress().Snapshot()
	assert.Equal(t, int64(1), snap.Errors)
	assert.Equal(t, int64(2), snap.Processed)
}

func TestScanner_HashFileFailures(t *testing.T) {
	root := canonicalTempDir(t)
	scanner := NewScanner(ScanOptions{Workers: 1})
	scanner.hasher = NewHashPool(1)
	defer scanner.hasher.Close()

	_, skip := scanner.hashFile(Candidate{Path: filepath.Join(root, "vanished.txt")})
	require.NotNil(t, skip)
	assert.Equal(t, SkipOpen, skip.Reason)
	assert.True(t, skip.Failed())

	// Opening a directory succeeds, reading it does not.
	_, skip = scanner.hashFile(Candidate{Path: root})
	require.NotNil(t, skip)
	assert.Equal(t, SkipRead, skip.Reason)
	assert.True(t, skip.Failed())

	logger := zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.WarnLevel)
	scanner.report(&logger, newSkip(filepath.Join(root, "vanished.txt"), SkipOpen, os.ErrNotExist))
	scanner.report(&logger, skip)
	assert.Equal(t, int64(2), scanner.Progress().Snapshot().Errors)
}

func TestScanner_LoadFileAttributes(t *testing.T) {
	root := canonicalTempDir(t)
	writeFile(t, filepath.Join(root, "a.txt"), "hello")

	result := runScan(t, ScanOptions{Workers: 1, LoadFileAttributes: true}, root)
	files := result[sha("hello")]
	require.Len(t, files, 1)
	require.NotNil(t, files[0].Attributes)
	assert.Equal(t, int64(5), files[0].Attributes.Size)
	assert.Equal(t, FileTypeFile, files[0].Attributes.FileType)
	assert.Greater(t, files[0].Attributes.EditDate, int64(0))
}

func TestScanner_MultipleRoots(t *testing.T) {
	a, b := canonicalTempDir(t), canonicalTempDir(t)
	writeFile(t, filepath.Join(a, "x"), "same")
	writeFile(t, filepath.Join(b, "y"), "same")

	result := runScan(t, ScanOptions{Workers: 3}, a, b)
	assert.Equal(t, []string{filepath.Join(a, "x"), filepath.Join(b, "y")}, pathsByHash(result)[sha("same")])
}

func TestScanner_RunOnce(t *testing.T) {
	scanner := NewScanner(ScanOptions{Workers: 1})
	_, err := scanner.Run(testContext(t), nil)
	require.NoError(t, err)

	_, err = scanner.Run(testContext(t), nil)
	assert.ErrorIs(t, err, ErrScannerReused)
}
